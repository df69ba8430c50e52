package conversation

import (
	"fmt"
	"strconv"
	"strings"
)

// ActionKind names the button-press side of the dialog. The transport maps
// its callbacks onto these.
type ActionKind string

const (
	ActionConfirm   ActionKind = "confirm"
	ActionCancel    ActionKind = "cancel"
	ActionSelect    ActionKind = "select"     // Value: candidate index
	ActionCreateNew ActionKind = "create_new" // create the suggested category
	ActionEdit      ActionKind = "edit"       // Field + Value amend the draft
)

// EditField names a draft field an edit action may amend.
type EditField string

const (
	EditAmount   EditField = "amount"
	EditDate     EditField = "date"
	EditCategory EditField = "category"
	EditNote     EditField = "note"
)

// Action is one user interaction that is not free text.
type Action struct {
	Kind  ActionKind
	Field EditField // set for ActionEdit
	Value string    // index for ActionSelect, new content for ActionEdit
}

// ParseAction decodes the transport's wire form. kind is one of the
// ActionKind constants; for edits, value is "field=content".
func ParseAction(kind, value string) (Action, error) {
	switch ActionKind(kind) {
	case ActionConfirm, ActionCancel, ActionCreateNew:
		return Action{Kind: ActionKind(kind)}, nil
	case ActionSelect:
		if _, err := strconv.Atoi(strings.TrimSpace(value)); err != nil {
			return Action{}, fmt.Errorf("select action needs a candidate index, got %q", value)
		}
		return Action{Kind: ActionSelect, Value: strings.TrimSpace(value)}, nil
	case ActionEdit:
		field, content, ok := strings.Cut(value, "=")
		if !ok {
			return Action{}, fmt.Errorf("edit action needs field=value, got %q", value)
		}
		switch EditField(field) {
		case EditAmount, EditDate, EditCategory, EditNote:
			return Action{Kind: ActionEdit, Field: EditField(field), Value: content}, nil
		default:
			return Action{}, fmt.Errorf("unknown edit field %q", field)
		}
	default:
		return Action{}, fmt.Errorf("unknown action %q", kind)
	}
}
