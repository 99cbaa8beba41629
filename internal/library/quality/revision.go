package quality

import "fmt"

// Revision tracks re-releases of the same quality (PROPER, REPACK, v2, REAL).
type Revision struct {
	Version  int  `json:"version" yaml:"version"`
	Real     int  `json:"real" yaml:"real"`
	IsRepack bool `json:"isRepack" yaml:"isRepack"`
}

// DefaultRevision is the revision of a first release.
var DefaultRevision = Revision{Version: 1}

// Compare returns a positive number when r is newer than other.
func (r Revision) Compare(other Revision) int {
	if r.Real != other.Real {
		return r.Real - other.Real
	}
	return r.Version - other.Version
}

func (r Revision) String() string {
	if r.Real > 0 {
		return fmt.Sprintf("v%d real%d", r.Version, r.Real)
	}
	return fmt.Sprintf("v%d", r.Version)
}

// Model is a quality tier together with its revision.
type Model struct {
	Quality  Quality  `json:"quality" yaml:"quality"`
	Revision Revision `json:"revision" yaml:"revision"`
}

func (m Model) String() string {
	if m.Revision.Version > 1 || m.Revision.Real > 0 {
		return m.Quality.Name + " " + m.Revision.String()
	}
	return m.Quality.Name
}
