package models

// DefaultVersion is the document version given to new or version-less configurations.
const DefaultVersion = "1.0.0"

// Configuration is the canonical document consumed by the map viewer.
// It is owned by a session snapshot and replaced wholesale on every transition.
type Configuration struct {
	Version         string         `json:"version"`
	Layout          Layout         `json:"layout"`
	InterfaceGroups []string       `json:"interfaceGroups"`
	ExclusivitySets []string       `json:"exclusivitySets"`
	Services        []Service      `json:"services"`
	Sources         []DataSource   `json:"sources"`
	MapConstraints  map[string]any `json:"mapConstraints,omitempty"`
}

// Layout holds the viewer chrome settings.
type Layout struct {
	Navigation Navigation `json:"navigation"`
}

// Navigation is the header bar of the viewer.
type Navigation struct {
	Logo  string `json:"logo"`
	Title string `json:"title"`
}

// Service is a remote map service that data items may reference by ID.
// Capabilities are resolved after validation and never exported.
type Service struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	URL          string               `json:"url"`
	Format       string               `json:"format,omitempty"`
	SourceType   string               `json:"sourceType,omitempty"`
	Capabilities *ServiceCapabilities `json:"capabilities,omitempty"`
}

// ServiceCapabilities is the subset of a GetCapabilities response the builder uses.
type ServiceCapabilities struct {
	Title    string      `json:"title,omitempty"`
	Abstract string      `json:"abstract,omitempty"`
	Layers   []LayerInfo `json:"layers"`
}

// LayerInfo describes one layer advertised by a service.
type LayerInfo struct {
	Name     string `json:"name"`
	Title    string `json:"title,omitempty"`
	Abstract string `json:"abstract,omitempty"`
}

// NewConfiguration returns the empty document a session starts with.
func NewConfiguration() Configuration {
	return Configuration{
		Version:         DefaultVersion,
		InterfaceGroups: []string{},
		ExclusivitySets: []string{},
		Services:        []Service{},
		Sources:         []DataSource{},
	}
}

// EnsureCollections replaces nil top-level lists with empty ones so they
// serialize as [] and fills a missing version.
func (c *Configuration) EnsureCollections() {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.InterfaceGroups == nil {
		c.InterfaceGroups = []string{}
	}
	if c.ExclusivitySets == nil {
		c.ExclusivitySets = []string{}
	}
	if c.Services == nil {
		c.Services = []Service{}
	}
	if c.Sources == nil {
		c.Sources = []DataSource{}
	}
}

// FindService returns the index of the service with the given ID, or -1.
func (c *Configuration) FindService(id string) int {
	for i := range c.Services {
		if c.Services[i].ID == id {
			return i
		}
	}
	return -1
}

// FindSource returns the index of the source with the given name, or -1.
func (c *Configuration) FindSource(name string) int {
	for i := range c.Sources {
		if c.Sources[i].Name == name {
			return i
		}
	}
	return -1
}
