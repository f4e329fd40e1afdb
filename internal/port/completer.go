package port

import "context"

// Completer is the language-model collaborator. The returned text carries no
// structural guarantee and must be validated before use.
type Completer interface {
	Complete(ctx context.Context, prompt, schemaHint string) (string, error)
}
