package types

import "fmt"

// StorageMapping is one configured backup stream: files under Source are
// mirrored into Dest. Mappings are read once at run start and are
// immutable for the duration of a run.
type StorageMapping struct {
	Source string `koanf:"source"`
	Dest   string `koanf:"dest"`
}

// Validate checks that both sides of the mapping are present.
func (s StorageMapping) Validate() error {
	if s.Source == "" {
		return fmt.Errorf("mapping is missing a source directory")
	}
	if s.Dest == "" {
		return fmt.Errorf("mapping %q is missing a destination directory", s.Source)
	}
	return nil
}

func (s StorageMapping) String() string {
	return fmt.Sprintf("%s -> %s", s.Source, s.Dest)
}
