package pipeline

import "github.com/smartinis/floodmap/internal/ferrors"

func configErr(message string, value any) error {
	return ferrors.New(ferrors.Configuration, "pipeline-config", message,
		map[string]any{"value": value})
}
