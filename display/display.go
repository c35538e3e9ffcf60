package display

// Modes selects where the current symbol is shown.
type Modes struct {
	StatusLine bool
	Title      bool
}

// ViewState is what one window last showed in its status line.
type ViewState struct {
	LastName string
}

// ProcessState is shared by all windows: the title is a single string, and
// the ruler option is global.
type ProcessState struct {
	LastTitleName string
	LastRuler     bool
}

// Update says which parts of the editor chrome must be redrawn.
type Update struct {
	StatusLine bool
	Title      bool
}

// Any reports whether anything needs redrawing.
func (u Update) Any() bool {
	return u.StatusLine || u.Title
}

// Cache remembers what was last displayed so a refresh only redraws what
// changed. Redrawing has side effects in the editor (it can reset the
// desired cursor column), so unchanged refreshes must stay silent.
//
// Cache is not safe for concurrent use; the engine event loop owns it.
type Cache struct {
	modes   Modes
	process ProcessState
	views   map[int]*ViewState
}

func NewCache(modes Modes) *Cache {
	return &Cache{
		modes: modes,
		views: make(map[int]*ViewState),
	}
}

func (c *Cache) Modes() Modes {
	return c.modes
}

// View returns the state for window id, creating an empty one on first use.
func (c *Cache) View(id int) *ViewState {
	v, ok := c.views[id]
	if !ok {
		v = &ViewState{}
		c.views[id] = v
	}
	return v
}

// Forget drops the state of a closed window.
func (c *Cache) Forget(id int) {
	delete(c.views, id)
}

// Process returns a copy of the shared state.
func (c *Cache) Process() ProcessState {
	return c.process
}

// Refresh compares name and ruler against what window view last showed and
// records the new values for whatever has to be redrawn.
//
// The status line is redrawn when the name changed or the ruler option was
// toggled, since the ruler changes the status line layout. The title only
// depends on the name.
func (c *Cache) Refresh(view int, name string, ruler bool) Update {
	var u Update

	if c.modes.StatusLine {
		v := c.View(view)
		if name != v.LastName || ruler != c.process.LastRuler {
			u.StatusLine = true
			v.LastName = name
			c.process.LastRuler = ruler
		}
	}

	if c.modes.Title && name != c.process.LastTitleName {
		u.Title = true
		c.process.LastTitleName = name
	}

	return u
}
