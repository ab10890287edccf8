package importmap

// Environment is one deployment environment known to the import-map deployer.
type Environment struct {
	Name      string   `json:"name"`
	Aliases   []string `json:"aliases"`
	IsDefault bool     `json:"isDefault"`
}

// environmentsResponse is the body of GET /environments.
type environmentsResponse struct {
	Environments []Environment `json:"environments"`
}

// ImportMap is the import map served for one environment.
type ImportMap struct {
	Imports map[string]string            `json:"imports"`
	Scopes  map[string]map[string]string `json:"scopes"`
}

// URLs returns every URL of the top-level imports and of every scope.
// Order is unspecified.
func (m *ImportMap) URLs() []string {
	if m == nil {
		return nil
	}

	urls := make([]string, 0, len(m.Imports))
	for _, u := range m.Imports {
		urls = append(urls, u)
	}
	for _, scope := range m.Scopes {
		for _, u := range scope {
			urls = append(urls, u)
		}
	}
	return urls
}
