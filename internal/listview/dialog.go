package listview

import (
	"errors"
	"maps"
)

// DialogState is the state of a form dialog.
type DialogState int

const (
	DialogClosed DialogState = iota
	DialogIdle
	DialogSubmitting
)

func (s DialogState) String() string {
	switch s {
	case DialogIdle:
		return "idle"
	case DialogSubmitting:
		return "submitting"
	default:
		return "closed"
	}
}

// DialogMode tells a create dialog from an edit dialog.
type DialogMode string

const (
	ModeCreate DialogMode = "create"
	ModeEdit   DialogMode = "edit"
)

var (
	ErrDialogClosed = errors.New("dialog is closed")
	ErrDialogBusy   = errors.New("dialog is already submitting")
)

// Dialog holds the transient form state of one create or edit dialog:
//
//	Closed -> Open(idle) -> Open(submitting) -> Closed | Open(idle, errors)
//
// Closing always clears the values and errors.
type Dialog struct {
	Mode     DialogMode
	TargetID string            // id of the edited item
	Values   map[string]string // form field values
	Errors   map[string]string // field errors; "" holds a form-level error

	state DialogState
}

// OpenCreate opens an empty create dialog. defaults pre-fill fields.
func (d *Dialog) OpenCreate(defaults map[string]string) {
	d.open(ModeCreate, "", defaults)
}

// OpenEdit opens a dialog populated from the item being edited.
func (d *Dialog) OpenEdit(id string, values map[string]string) {
	d.open(ModeEdit, id, values)
}

func (d *Dialog) open(mode DialogMode, id string, values map[string]string) {
	d.Mode = mode
	d.TargetID = id
	d.Values = make(map[string]string, len(values))
	maps.Copy(d.Values, values)
	d.Errors = map[string]string{}
	d.state = DialogIdle
}

// Submit moves an idle dialog to submitting.
func (d *Dialog) Submit() error {
	switch d.state {
	case DialogClosed:
		return ErrDialogClosed
	case DialogSubmitting:
		return ErrDialogBusy
	}
	d.Errors = map[string]string{}
	d.state = DialogSubmitting
	return nil
}

// Fail returns a submitting dialog to idle with errors. Values are kept so
// the user can correct them.
func (d *Dialog) Fail(errs map[string]string) {
	if d.state == DialogClosed {
		return
	}
	d.Errors = make(map[string]string, len(errs))
	maps.Copy(d.Errors, errs)
	d.state = DialogIdle
}

// Succeed closes the dialog after a successful submission.
func (d *Dialog) Succeed() {
	d.Close()
}

// Close closes the dialog and clears its form state.
func (d *Dialog) Close() {
	d.Mode = ""
	d.TargetID = ""
	d.Values = nil
	d.Errors = nil
	d.state = DialogClosed
}

// State returns the current state.
func (d *Dialog) State() DialogState { return d.state }

// IsOpen reports whether the dialog is open.
func (d *Dialog) IsOpen() bool { return d.state != DialogClosed }

// Submitting reports whether a submission is in flight.
func (d *Dialog) Submitting() bool { return d.state == DialogSubmitting }

// Value returns a form value.
func (d *Dialog) Value(field string) string { return d.Values[field] }

// Error returns a field error.
func (d *Dialog) Error(field string) string { return d.Errors[field] }

// HasErrors reports whether any error is set.
func (d *Dialog) HasErrors() bool { return len(d.Errors) > 0 }
