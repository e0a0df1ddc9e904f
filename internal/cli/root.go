package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/imrishuroy/go-furniture-workshop/internal/customrequest"
	"github.com/imrishuroy/go-furniture-workshop/internal/promotion"
)

// Backend is what the admin commands operate on.
type Backend struct {
	Promotions *promotion.Engine
	Requests   *customrequest.Lifecycle
}

// Loader builds the backend once a command actually runs, so --help works
// without AWS credentials.
type Loader func(ctx context.Context) (*Backend, error)

type app struct {
	load    Loader
	backend *Backend
}

func (a *app) get(ctx context.Context) (*Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	b, err := a.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise backend: %w", err)
	}
	a.backend = b
	return b, nil
}

// NewRootCmd returns the workshop admin command tree.
func NewRootCmd(load Loader) *cobra.Command {
	a := &app{load: load}
	root := &cobra.Command{
		Use:   "workshop-admin",
		Short: "Operate promotions and custom requests",
		Long: `workshop-admin talks to the same DynamoDB tables as the API and applies
the same rules: promotion codes are validated and normalized, and custom
request transitions go through the lifecycle state machine.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPromoCmd(a), newRequestCmd(a))
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
