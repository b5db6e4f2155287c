package manifest

import "github.com/mattsolo1/svpipe/internal/ini"

// Write serializes m and atomically writes it to path (temp file in the
// same directory, fsync, rename) so a crash or concurrent reader never
// observes a partially written manifest.
func Write(path string, m *Manifest) error {
	return Serialize(m).WriteFile(path)
}

// Read parses the manifest at path.
func Read(path string) (*Manifest, error) {
	f, err := ini.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Deserialize(f)
}
