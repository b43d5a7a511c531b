/*
Package domain contains the failure model shared by lattice pipelines and their hosts.

A pipeline run ends either with output or with exactly one error record, which
belongs to one of three families:

  - Signal: a control-flow instruction for the hosting framework (redirect,
    not found). It is handed back to the caller unchanged and never serialized.
  - ValidationError: every issue collected by one validation pass.
  - ServerError: a coded failure whose status comes from a fixed table.

Classify maps arbitrary errors onto these families and Serialize produces the
client-visible shape. The package has no I/O and no knowledge of transports.
*/
package domain
