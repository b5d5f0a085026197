package auth

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
)

// idTokenVerifier is the part of the Firebase auth client used to check ID tokens
type idTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*fbauth.Token, error)
}

// FirebaseVerifier verifies Firebase ID tokens (RS256, Google-published keys)
// and uses the Firebase UID as the user ID.
type FirebaseVerifier struct {
	client idTokenVerifier
}

// NewFirebaseVerifier creates a verifier for ID tokens issued to the given Firebase project.
// Credentials come from the environment; FIREBASE_AUTH_EMULATOR_HOST points it at the emulator.
func NewFirebaseVerifier(ctx context.Context, projectID string) (*FirebaseVerifier, error) {
	if projectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("creating firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating firebase auth client: %w", err)
	}

	return &FirebaseVerifier{client: client}, nil
}

// Verify checks the ID token and returns the Firebase UID
func (v *FirebaseVerifier) Verify(ctx context.Context, token string) (string, error) {
	decoded, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if decoded.UID == "" {
		return "", fmt.Errorf("%w: token has no uid", ErrUnauthorized)
	}
	return decoded.UID, nil
}
