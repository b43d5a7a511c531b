package pipeline

// Description summarises the declarations of an action for tooling.
type Description struct {
	Name       string     `json:"name" yaml:"name"`
	Contexts   int        `json:"contexts" yaml:"contexts"`
	Metas      int        `json:"metas" yaml:"metas"`
	Binds      [][]string `json:"binds,omitempty" yaml:"binds,omitempty"`
	Inputs     []string   `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs    []string   `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Middleware []string   `json:"middleware,omitempty" yaml:"middleware,omitempty"`
}

// Describe lists the action's declarations. Outputs are listed in the order
// they are applied, latest declaration first.
func (a *Action) Describe() Description {
	d := a.def
	desc := Description{
		Name:     d.name,
		Contexts: d.contexts.Offset(),
		Metas:    d.metas.Offset(),
	}
	for _, group := range d.binds.Items() {
		names := make([]string, len(group))
		for i, s := range group {
			names[i] = s.Name()
		}
		desc.Binds = append(desc.Binds, names)
	}
	for _, s := range d.inputs.Items() {
		desc.Inputs = append(desc.Inputs, s.Name())
	}
	for _, s := range d.outputs.Items() {
		desc.Outputs = append(desc.Outputs, s.Name())
	}
	for _, reg := range d.middleware.Items() {
		desc.Middleware = append(desc.Middleware, reg.Name)
	}
	return desc
}

// Stage counts the declarations applied around one step of the chain: the
// ones applied right before it runs and the output schemas applied once it
// returns.
type Stage struct {
	Name     string `json:"name" yaml:"name"`
	Contexts int    `json:"contexts,omitempty" yaml:"contexts,omitempty"`
	Metas    int    `json:"metas,omitempty" yaml:"metas,omitempty"`
	Binds    int    `json:"binds,omitempty" yaml:"binds,omitempty"`
	Inputs   int    `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Outputs  int    `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// ActionStage names the terminal step in Stages.
const ActionStage = "action"

// Stages lists the chain in execution order, ending with the action.
func (a *Action) Stages() []Stage {
	d := a.def
	regs := d.middleware.Items()
	stages := make([]Stage, 0, len(regs)+1)

	var prev Registration
	for _, reg := range regs {
		stages = append(stages, Stage{
			Name:     reg.Name,
			Contexts: reg.ContextOffset - prev.ContextOffset,
			Metas:    reg.MetaOffset - prev.MetaOffset,
			Binds:    reg.BindsOffset - prev.BindsOffset,
			Inputs:   reg.InputOffset - prev.InputOffset,
			Outputs:  reg.OutputOffset - prev.OutputOffset,
		})
		prev = reg
	}
	return append(stages, Stage{
		Name:     ActionStage,
		Contexts: d.contexts.Offset() - prev.ContextOffset,
		Metas:    d.metas.Offset() - prev.MetaOffset,
		Binds:    d.binds.Offset() - prev.BindsOffset,
		Inputs:   d.inputs.Offset() - prev.InputOffset,
		Outputs:  d.outputs.Offset() - prev.OutputOffset,
	})
}
