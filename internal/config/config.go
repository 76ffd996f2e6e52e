// Package config loads the link and mail text settings that sit beside the
// process options. Values come from built-in defaults, optionally
// overridden by a YAML file.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

// Settings are the user facing URLs and mail texts.
type Settings struct {
	// ActivationLink and ResetLink end in the query parameter name the
	// mailed token is appended to.
	ActivationLink string `koanf:"activation_link"`
	ResetLink      string `koanf:"reset_link"`
	// LoginURL is linked from the activation confirmation page.
	LoginURL string `koanf:"login_url"`
	// ResetPageURL is where a valid reset link redirects.
	ResetPageURL string `koanf:"reset_page_url"`
	Mail         Mail   `koanf:"mail"`
}

// Mail holds subjects and bodies of the mails the service sends.
type Mail struct {
	ActivationSubject string `koanf:"activation_subject"`
	ActivationBody    string `koanf:"activation_body"`
	ResetSubject      string `koanf:"reset_subject"`
	ResetBody         string `koanf:"reset_body"`
}

// Defaults returns settings pointing at publicURL.
func Defaults(publicURL string) Settings {
	base := strings.TrimRight(publicURL, "/")

	return Settings{
		ActivationLink: base + "/activate?activation_string",
		ResetLink:      base + "/password/check/token?reset_string",
		LoginURL:       base + "/login.html",
		ResetPageURL:   base + "/reset-password.html",
		Mail: Mail{
			ActivationSubject: "Activate your account",
			ActivationBody:    "Click the below link to activate your account.",
			ResetSubject:      "Reset your password",
			ResetBody: "Click the below link to reset your password. It is one-time link, " +
				"once you changed your password using the link, it will be expired.",
		},
	}
}

// Load returns the defaults for publicURL overlaid with the YAML file at
// path. An empty path yields the defaults.
func Load(path, publicURL string) (*Settings, error) {
	settings := Defaults(publicURL)

	if path == "" {
		return &settings, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, oops.With("path", path).Wrapf(err, "loading settings file")
	}

	if err := k.Unmarshal("", &settings); err != nil {
		return nil, oops.With("path", path).Wrapf(err, "decoding settings file")
	}

	return &settings, nil
}
