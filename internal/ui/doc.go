// Package ui binds the overlay engine to Bubble Tea.
//
//   - Host: subscribes to the manager's store, renders every record in
//     insertion order and routes keys to the topmost open overlay
//   - Component: content contract; receives the overlay's Self on every call
//   - ConfirmModal, PromptModal, EditorModal, PickerModal: built-in content
//   - Keymap, Leader: mode-scoped key bindings, SPC leader sequences and the help bar
//   - AppModel: the demo program tying the pieces together
package ui
