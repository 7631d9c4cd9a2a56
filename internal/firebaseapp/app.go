package firebaseapp

import (
	"context"
	"errors"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// New builds the firebase App shared by the auth middleware and the firestore
// backend. Without a credentials file the SDK falls back to application
// default credentials.
func New(ctx context.Context, projectID, credentialsFile string) (*firebase.App, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is not set")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, opts...)
}
