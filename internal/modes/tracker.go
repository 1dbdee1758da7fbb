package modes

// Transition describes a mode change and the commands it requires
type Transition struct {
	From     JumpMode
	To       JumpMode
	Commands []Action
}

// Ends reports whether the transition terminates the owning session
func (t Transition) Ends() bool {
	return t.To == Disabled
}

// Tracker holds the active mode of one session
type Tracker struct {
	mode  JumpMode
	cycle []JumpMode
}

// NewTracker creates a tracker in Disabled mode. An empty cycle falls back
// to DefaultCycle.
func NewTracker(cycle []JumpMode) *Tracker {
	var filtered []JumpMode
	for _, m := range cycle {
		if m != Disabled {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) == 0 {
		filtered = DefaultCycle
	}
	return &Tracker{cycle: filtered}
}

// Mode returns the active mode
func (t *Tracker) Mode() JumpMode {
	return t.mode
}

// Cycle returns the configured cycle order
func (t *Tracker) Cycle() []JumpMode {
	return t.cycle
}

// Toggle activates mode, or disables it when it is already active
func (t *Tracker) Toggle(mode JumpMode) Transition {
	if mode == t.mode {
		return t.set(Disabled)
	}
	return t.set(mode)
}

// CycleNext moves to the next configured mode, wrapping around
func (t *Tracker) CycleNext() Transition {
	i := t.index()
	if i < 0 {
		return t.set(t.cycle[0])
	}
	return t.set(t.cycle[(i+1)%len(t.cycle)])
}

// CyclePrevious moves to the previous configured mode, wrapping around
func (t *Tracker) CyclePrevious() Transition {
	i := t.index()
	if i < 0 {
		return t.set(t.cycle[len(t.cycle)-1])
	}
	return t.set(t.cycle[(i-1+len(t.cycle))%len(t.cycle)])
}

// Reset returns to Disabled
func (t *Tracker) Reset() Transition {
	return t.set(Disabled)
}

func (t *Tracker) index() int {
	for i, m := range t.cycle {
		if m == t.mode {
			return i
		}
	}
	return -1
}

func (t *Tracker) set(mode JumpMode) Transition {
	tr := Transition{From: t.mode, To: mode}
	t.mode = mode

	if mode == Disabled {
		tr.Commands = []Action{RestoreCaretColorAction{}, RepaintAction{}, EndSessionAction{}}
	} else {
		tr.Commands = []Action{SetCaretColorAction{Mode: mode}, RepaintAction{}}
	}
	return tr
}
