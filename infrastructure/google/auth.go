package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// CloudPlatformScope covers Speech-to-Text, Translation and Text-to-Speech
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Credentials selects how the Google clients authenticate. The first
// configured source wins: API key, credentials file (service account, or
// OAuth client together with TokenFile), then application default
// credentials.
type Credentials struct {
	APIKey          string
	CredentialsFile string
	TokenFile       string
	Endpoint        string
	// Prompt receives instructions during the browser OAuth flow
	Prompt io.Writer
}

type credentialsFile struct {
	Type      string          `json:"type"`
	Installed json.RawMessage `json:"installed"`
	Web       json.RawMessage `json:"web"`
}

// ClientOptions resolves the credentials into API client options
func ClientOptions(ctx context.Context, creds Credentials) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if creds.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(creds.Endpoint))
	}

	switch {
	case creds.APIKey != "":
		return append(opts, option.WithAPIKey(creds.APIKey)), nil

	case creds.CredentialsFile != "":
		b, err := os.ReadFile(creds.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("unable to read credentials file: %w", err)
		}
		var kind credentialsFile
		if err := json.Unmarshal(b, &kind); err != nil {
			return nil, fmt.Errorf("unable to parse credentials file: %w", err)
		}

		if kind.Type == "service_account" {
			config, err := google.JWTConfigFromJSON(b, CloudPlatformScope)
			if err != nil {
				return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
			}
			return append(opts, option.WithHTTPClient(config.Client(ctx))), nil
		}

		if len(kind.Installed) == 0 && len(kind.Web) == 0 {
			return nil, fmt.Errorf("credentials file %s is neither a service account key nor an OAuth client", creds.CredentialsFile)
		}
		if creds.TokenFile == "" {
			return nil, fmt.Errorf("google.token_file is required for OAuth client credentials")
		}
		client, err := oauthClient(ctx, b, creds.TokenFile, creds.Prompt)
		if err != nil {
			return nil, err
		}
		return append(opts, option.WithHTTPClient(client)), nil

	default:
		// application default credentials
		return append(opts, option.WithScopes(CloudPlatformScope)), nil
	}
}
