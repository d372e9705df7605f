package ofctlengine

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Tool names offered to the model.
const (
	ToolAddRule           = "add_rule"
	ToolDeleteRuleStrict  = "delete_rule_strict"
	ToolModifyRuleStrict  = "modify_rule_strict"
	ToolModifyAllMatching = "modify_all_matching_rules"
)

const matchHint = "Match keys: dl_type, nw_src, nw_dst, nw_proto, tp_dst."

func flowParameters(priorityRequired bool) jsonschema.Definition {
	required := []string{"switch_id", "table_id", "match", "actions"}
	if priorityRequired {
		required = append(required, "priority")
	}

	return jsonschema.Definition{
		Type: jsonschema.Object,
		Properties: map[string]jsonschema.Definition{
			"switch_id": {Type: jsonschema.String, Description: "Switch datapath id in decimal"},
			"table_id":  {Type: jsonschema.Integer, Description: "Flow table id"},
			"match":     {Type: jsonschema.Object, Description: "Match criteria. " + matchHint},
			"actions": {
				Type:        jsonschema.Array,
				Description: `Actions for matching packets; [] drops, [{"type":"OUTPUT","port":2}] outputs`,
				Items:       &jsonschema.Definition{Type: jsonschema.Object},
			},
			"priority": {Type: jsonschema.Integer, Description: "Flow priority, 32768 by default"},
		},
		Required: required,
	}
}

func flowTool(name, description string, priorityRequired bool) openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  flowParameters(priorityRequired),
		},
	}
}

// Tools returns the flow tools in a fresh slice.
func Tools() []openai.Tool {
	return []openai.Tool{
		flowTool(ToolAddRule, "Add an OpenFlow rule to a switch.", false),
		flowTool(ToolDeleteRuleStrict, "Remove the rule exactly matching every argument.", true),
		flowTool(ToolModifyRuleStrict, "Modify the rule exactly matching match and priority.", true),
		flowTool(ToolModifyAllMatching, "Modify every rule matching the criteria.", true),
	}
}
