package loader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/promptd/internal/resources/model"
	"github.com/ternarybob/promptd/internal/resources/schema"
)

// internalErr carries an ErrKind through the loader's private call
// stack; logFailure unwraps it to decide which counter/log line to
// emit. It never escapes the loader package.
type internalErr struct {
	kind model.ErrKind
	err  error
}

func (e *internalErr) Error() string { return e.err.Error() }
func (e *internalErr) Unwrap() error { return e.err }

func wrapParseErr(err error) error {
	if err == nil {
		return nil
	}
	return &internalErr{kind: model.ErrKindParse, err: err}
}

func wrapIOErr(err error) error {
	if err == nil {
		return nil
	}
	return &internalErr{kind: model.ErrKindIO, err: err}
}

func wrapSchemaErr(r schema.Result) error {
	return &internalErr{kind: model.ErrKindSchema, err: fmt.Errorf("%s", strings.Join(r.Errors, "; "))}
}

// classify extracts the ErrKind an internal load step attached to err,
// defaulting to IoError for anything unrecognized (e.g. a permission
// failure surfacing from a lower-level call).
func classify(err error) model.ErrKind {
	var ie *internalErr
	if errors.As(err, &ie) {
		return ie.kind
	}
	return model.ErrKindIO
}

func readBytes(path string) ([]byte, error) {
	return os.ReadFile(path)
}
