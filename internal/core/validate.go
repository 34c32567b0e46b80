package core

import "fmt"

// Validate reports whether the artifact is structurally valid: a non-empty
// ordered block list where every block carries a recognized kind tag.
// Invalid artifacts are discarded by the orchestrator and treated as adapter
// failure.
func (a *GeneratedArtifact) Validate() error {
	if a == nil {
		return fmt.Errorf("artifact is nil")
	}
	if len(a.Blocks) == 0 {
		return fmt.Errorf("artifact has no blocks")
	}
	for i, b := range a.Blocks {
		if !recognizedBlockKinds[b.Kind] {
			return fmt.Errorf("block %d has unrecognized kind %q", i, b.Kind)
		}
	}
	return nil
}
