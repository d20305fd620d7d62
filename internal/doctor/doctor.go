// Package doctor lints a loaded intentd configuration. Load already rejects
// configs that cannot run; doctor reports settings that run but are likely
// wrong.
package doctor

import (
	"encoding/json"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"github.com/mattjoyce/intentd/internal/auth"
	"github.com/mattjoyce/intentd/internal/config"
)

// Delay bounds outside which dispatch timing is flagged.
const (
	minSaneDelay = 100 * time.Millisecond
	maxSaneDelay = 5 * time.Second
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Doctor validates a loaded configuration.
type Doctor struct {
	cfg *config.Config
}

// New creates a Doctor for cfg.
func New(cfg *config.Config) *Doctor {
	return &Doctor{cfg: cfg}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateTokenScopes(r)
	d.validateWebhooks(r)
	d.warnNoIngress(r)
	d.warnExposedAPI(r)
	d.warnDispatchTiming(r)
	d.warnPlatform(r)
	d.warnDeprecatedSyntax(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateTokenScopes checks every scope names a known resource and access.
func (d *Doctor) validateTokenScopes(r *Result) {
	for i, token := range d.cfg.API.Auth.Tokens {
		if token.Token == "" {
			d.addWarning(r, "token_scopes", fmt.Sprintf("api.auth.tokens[%d].token", i),
				"token value is empty (possibly unresolved environment variable)")
		}
		for j, scope := range token.Scopes {
			field := fmt.Sprintf("api.auth.tokens[%d].scopes[%d]", i, j)
			d.validateSingleScope(r, scope, field)
		}
	}
}

func (d *Doctor) validateSingleScope(r *Result, scope, field string) {
	if scope == "*" {
		return
	}

	resource, access, ok := strings.Cut(scope, ":")
	if !ok {
		d.addError(r, "token_scopes", field,
			fmt.Sprintf("invalid scope %q (expected format: resource:ro or resource:rw)", scope))
		return
	}
	if !slices.Contains(auth.Resources, resource) {
		d.addError(r, "token_scopes", field,
			fmt.Sprintf("scope %q references unknown resource %q (known: %s)",
				scope, resource, strings.Join(auth.Resources, ", ")))
		return
	}
	if access != "ro" && access != "rw" {
		d.addError(r, "token_scopes", field,
			fmt.Sprintf("scope %q: invalid access type %q (expected ro or rw)", scope, access))
	}
}

// validateWebhooks catches paths that only differ by a trailing slash and
// flags inline secrets.
func (d *Doctor) validateWebhooks(r *Result) {
	if d.cfg.Webhooks == nil {
		return
	}

	seen := make(map[string]int)
	for i, ep := range d.cfg.Webhooks.Endpoints {
		field := fmt.Sprintf("webhooks.endpoints[%d]", i)

		normalized := strings.TrimSuffix(ep.Path, "/")
		if prevIdx, exists := seen[normalized]; exists {
			d.addError(r, "webhooks", field+".path",
				fmt.Sprintf("webhook path %q conflicts with webhooks.endpoints[%d]", ep.Path, prevIdx))
		}
		seen[normalized] = i

		if ep.Secret != "" && ep.SecretRef == "" {
			d.addWarning(r, "webhooks", field+".secret",
				fmt.Sprintf("webhook %q has an inline secret; prefer secret_ref into tokens", ep.Path))
		}
	}
}

// warnNoIngress flags configs where only 'link open' can deliver links.
func (d *Doctor) warnNoIngress(r *Result) {
	if d.cfg.API.Enabled {
		return
	}
	if d.cfg.Webhooks != nil && len(d.cfg.Webhooks.Endpoints) > 0 {
		return
	}
	d.addWarning(r, "ingress", "",
		"neither api nor webhooks are enabled; a running service cannot receive links")
}

// warnExposedAPI flags an API listening beyond loopback.
func (d *Doctor) warnExposedAPI(r *Result) {
	if !d.cfg.API.Enabled {
		return
	}
	host, _, err := net.SplitHostPort(d.cfg.API.Listen)
	if err != nil {
		d.addError(r, "api", "api.listen",
			fmt.Sprintf("api.listen %q is not host:port: %v", d.cfg.API.Listen, err))
		return
	}
	if host == "localhost" {
		return
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return
	}
	d.addWarning(r, "api", "api.listen",
		fmt.Sprintf("API listens on %q; session control is reachable from the network", d.cfg.API.Listen))
}

// warnDispatchTiming flags delays that race teardown or feel unresponsive.
func (d *Doctor) warnDispatchTiming(r *Result) {
	delay := d.cfg.Dispatch.Delay
	switch {
	case delay > 0 && delay < minSaneDelay:
		d.addWarning(r, "dispatch", "dispatch.delay",
			fmt.Sprintf("delay %s is shorter than %s; handlers may open before surfaces have closed", delay, minSaneDelay))
	case delay > maxSaneDelay:
		d.addWarning(r, "dispatch", "dispatch.delay",
			fmt.Sprintf("delay %s is longer than %s; intents will feel unresponsive", delay, maxSaneDelay))
	}
	if timeout := d.cfg.Dispatch.TeardownTimeout; timeout > 0 && timeout < delay {
		d.addWarning(r, "dispatch", "dispatch.teardown_timeout",
			fmt.Sprintf("teardown_timeout %s is shorter than delay %s", timeout, delay))
	}
}

func (d *Doctor) warnPlatform(r *Result) {
	if !d.cfg.Platform.NativeImageAttachment {
		d.addWarning(r, "platform", "platform.native_image_attachment",
			"native image attachment is off; images in compose intents will be withheld")
	}
}

// warnDeprecatedSyntax warns about legacy config patterns.
func (d *Doctor) warnDeprecatedSyntax(r *Result) {
	if d.cfg.API.Auth.APIKey != "" && len(d.cfg.API.Auth.Tokens) > 0 {
		d.addWarning(r, "deprecated", "api.auth",
			"both api_key and tokens configured; prefer tokens array only")
	}
	if d.cfg.API.Auth.APIKey != "" && len(d.cfg.API.Auth.Tokens) == 0 {
		d.addWarning(r, "deprecated", "api.auth.api_key",
			"legacy api_key grants full access; migrate to tokens array with scopes")
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
