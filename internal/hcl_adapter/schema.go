package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Pipelines   []*pipelineBlock   `hcl:"pipeline,block"`
	Constraints []*constraintBlock `hcl:"constraint,block"`
	Valuetypes  []*valuetypeBlock  `hcl:"valuetype,block"`
	Variables   []*variableBlock   `hcl:"variable,block"`
}

type pipelineBlock struct {
	Name     string        `hcl:"name,label"`
	Blocks   []*blockBlock `hcl:"block,block"`
	Pipes    []*pipeBlock  `hcl:"pipe,block"`
	DefRange hcl.Range     `hcl:",def_range"`
}

type blockBlock struct {
	Name      string    `hcl:"name,label"`
	Kind      string    `hcl:"kind,label"`
	Body      hcl.Body  `hcl:",remain"`
	DefRange  hcl.Range `hcl:",def_range"`
	KindRange hcl.Range `hcl:"kind,label_range"`
}

type pipeBlock struct {
	Chain    hcl.Expression `hcl:"chain"`
	DefRange hcl.Range      `hcl:",def_range"`
}

type constraintBlock struct {
	Name      string    `hcl:"name,label"`
	Kind      string    `hcl:"kind,label"`
	Body      hcl.Body  `hcl:",remain"`
	DefRange  hcl.Range `hcl:",def_range"`
	KindRange hcl.Range `hcl:"kind,label_range"`
}

type valuetypeBlock struct {
	Name        string         `hcl:"name,label"`
	Base        hcl.Expression `hcl:"base"`
	Constraints hcl.Expression `hcl:"constraints,optional"`
	DefRange    hcl.Range      `hcl:",def_range"`
}

type variableBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
	DefRange    hcl.Range      `hcl:",def_range"`
}
