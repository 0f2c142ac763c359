package hotkey

// NopBackend accepts every registration and never fires. It backs the
// router when global hotkeys are disabled; recall sessions are then driven
// only through the control surface.
type NopBackend struct{}

func (NopBackend) Register(Binding, func()) (Handle, error)      { return nil, nil }
func (NopBackend) Unregister(Handle) error                       { return nil }
func (NopBackend) WatchRelease(Modifier, func()) (Handle, error) { return nil, nil }
func (NopBackend) UnwatchRelease(Handle) error                   { return nil }
