package scripts

import (
	"context"
	"errors"
	"fmt"

	"github.com/Prathap331/SB-Next/internal/api"
	"github.com/Prathap331/SB-Next/internal/client"
	"github.com/Prathap331/SB-Next/internal/logging"
)

var (
	// ErrNoParams means nothing was stashed for the tab.
	ErrNoParams = errors.New("no generation parameters found, create a script from a topic first")
	// ErrSignInRequired means the credential was rejected and has been cleared.
	ErrSignInRequired = errors.New("sign in required")
)

// Backend calls the generate-script route.
type Backend interface {
	GenerateScript(ctx context.Context, req api.GenerationRequest) (*api.ScriptResult, error)
}

// Result is a generated script with the parameters that produced it.
type Result struct {
	Script    *api.ScriptResult
	Request   api.GenerationRequest
	FromCache bool
}

// Generator consumes stashed parameters and produces scripts.
type Generator struct {
	backend Backend
	stash   *Stash
	cache   *Cache
}

// NewGenerator wires a generator. cache may be nil.
func NewGenerator(backend Backend, stash *Stash, cache *Cache) *Generator {
	return &Generator{backend: backend, stash: stash, cache: cache}
}

// Generate produces the script for the parameters stashed under tabID. The
// parameters are cleared once a script is delivered; a failed call leaves
// them stashed so it can be retried.
func (g *Generator) Generate(ctx context.Context, tabID string) (*Result, error) {
	logger := logging.Get(ctx)

	req, ok := g.stash.Peek(tabID)
	if !ok {
		return nil, ErrNoParams
	}

	id := CacheID(req)
	if g.cache != nil {
		if script, hit := g.cache.Get(ctx, id); hit {
			logger.Debug().Str("id", id).Msg("using cached script")
			g.stash.Forget(tabID)
			return &Result{Script: script, Request: req, FromCache: true}, nil
		}
	}

	logger.Info().Str("id", id).Int("duration_minutes", req.DurationMinutes).Msg("generating script")
	script, err := g.backend.GenerateScript(ctx, req)
	if errors.Is(err, client.ErrUnauthorized) {
		g.stash.Forget(tabID)
		return nil, ErrSignInRequired
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate script: %w", err)
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("script generation cancelled: %w", ctx.Err())
	}

	if g.cache != nil {
		g.cache.Put(ctx, id, script)
	}
	g.stash.Forget(tabID)
	return &Result{Script: script, Request: req}, nil
}
