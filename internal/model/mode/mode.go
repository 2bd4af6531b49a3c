package mode

// Mode captures a named behavioral variant selectable by the caller. The
// prompt addition is appended to the base system prompt and never leaves the
// server.
type Mode struct {
	Name           string `json:"name"`
	Description    string `json:"description"`
	PromptAddition string `json:"-"`
}

// Store exposes mode retrieval for HTTP handlers and prompt building.
type Store interface {
	List() []Mode
	Find(name string) (Mode, bool)
}

// MemoryStore implements Store with an in-memory slice; the mode set is fixed
// at startup.
type MemoryStore struct {
	items []Mode
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied modes.
func NewMemoryStore(items []Mode) *MemoryStore {
	return &MemoryStore{items: append([]Mode(nil), items...)}
}

// List returns the defined mode list.
func (s *MemoryStore) List() []Mode {
	return append([]Mode(nil), s.items...)
}

// Find looks up a mode by its exact name.
func (s *MemoryStore) Find(name string) (Mode, bool) {
	for _, item := range s.items {
		if item.Name == name {
			return item, true
		}
	}
	return Mode{}, false
}

// Seed provides the default mode set shown in the mode selector.
func Seed() []Mode {
	return []Mode{
		{
			Name:           "Sweet",
			Description:    "Gentle and nurturing guidance with warmth.",
			PromptAddition: "Respond with extra warmth, patience, and encouraging support.",
		},
		{
			Name:           "Target",
			Description:    "Direct and goal-oriented precision focus.",
			PromptAddition: "Be laser-focused, concise, and action-oriented in responses.",
		},
		{
			Name:           "Bullet Babe",
			Description:    "Quick-fire insights in punchy bullet points.",
			PromptAddition: "Deliver responses in sharp, punchy bullet points with attitude.",
		},
		{
			Name:           "CI Lev",
			Description:    "Deep technical CI/CD pipeline expertise.",
			PromptAddition: "Focus heavily on CI/CD, automation, and deployment strategies.",
		},
		{
			Name:           "JT",
			Description:    "Straight-talking engineering leadership vibes.",
			PromptAddition: "Channel confident engineering leadership with no-nonsense advice.",
		},
		{
			Name:           "CXO",
			Description:    "Executive-level strategic thinking mode.",
			PromptAddition: "Think strategically at the executive level, focusing on business impact.",
		},
		{
			Name:           "Queen",
			Description:    "Commanding presence with regal authority.",
			PromptAddition: "Respond with commanding authority and regal confidence.",
		},
	}
}
