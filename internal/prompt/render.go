package prompt

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

// Render writes a prompt component into a string.
func Render(ctx context.Context, component templ.Component) (string, error) {
	var builder strings.Builder
	if err := component.Render(ctx, &builder); err != nil {
		return "", err
	}
	return builder.String(), nil
}

// MustRender is Render for components that only write static text.
func MustRender(component templ.Component) string {
	rendered, err := Render(context.Background(), component)
	if err != nil {
		panic(err)
	}
	return rendered
}
