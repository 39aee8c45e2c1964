package sync

import (
	"github.com/mirrordoc/mirrordoc/pkg/document"
	"github.com/mirrordoc/mirrordoc/pkg/document/identity"
)

// ReconcileTexts computes the structural change-set between two texts without
// touching any live model. Useful for diff tooling; a session performs the
// same pass and additionally replays the result.
func ReconcileTexts(oldText, newText []byte) (*ChangeSet, error) {
	oldDoc, err := document.Build(oldText, identity.NewResolver())
	if err != nil {
		return nil, err
	}
	newDoc, err := document.Build(newText, identity.NewResolver())
	if err != nil {
		return nil, err
	}

	oldSnap, err := Encode(oldDoc)
	if err != nil {
		return nil, err
	}
	newSnap, err := Encode(newDoc)
	if err != nil {
		return nil, err
	}

	if _, err := Stabilize(oldSnap, newSnap, oldText, newText); err != nil {
		return nil, err
	}
	return Diff(oldSnap, newSnap), nil
}

// ReconcileModels computes the structural change-set between two models by
// regenerating each one's text and reconciling the texts' snapshots.
func ReconcileModels(old, new *document.Document) (*ChangeSet, error) {
	oldText := document.Render(old)
	newText := document.Render(new)

	oldSnap, err := Encode(old)
	if err != nil {
		return nil, err
	}
	newSnap, err := Encode(new)
	if err != nil {
		return nil, err
	}

	if _, err := Stabilize(oldSnap, newSnap, oldText, newText); err != nil {
		return nil, err
	}
	return Diff(oldSnap, newSnap), nil
}
