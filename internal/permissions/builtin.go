package permissions

// Built-in capability ids.
const (
	CapabilityView   = "view"
	CapabilityManage = "manage"
	CapabilityOwn    = "own"
)

// NewBuiltinRegistry returns the standard capability ladder: own implies manage, manage
// implies view.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, capability := range []*Capability{
		{
			ID:          CapabilityView,
			Title:       "Viewer",
			Description: "Read the entity",
		},
		{
			ID:          CapabilityManage,
			Title:       "Manager",
			Implies:     []string{CapabilityView},
			Description: "Read and modify the entity",
		},
		{
			ID:          CapabilityOwn,
			Title:       "Owner",
			Implies:     []string{CapabilityManage},
			Description: "Modify, delete and share the entity",
		},
	} {
		if err := r.Register(capability); err != nil {
			panic(err)
		}
	}
	return r
}
