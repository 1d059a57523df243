package gcal

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sub", "token.json")
	tok := &oauth2.Token{
		AccessToken:  "abc",
		RefreshToken: "def",
		TokenType:    "Bearer",
		Expiry:       time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	if err := SaveToken(path, tok); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	got, err := LoadToken(path)
	if err != nil {
		t.Fatalf("LoadToken: %v", err)
	}
	if got.AccessToken != tok.AccessToken || got.RefreshToken != tok.RefreshToken {
		t.Fatalf("loaded token mismatch: %+v", got)
	}
}

func TestLoadToken_MissingFileIsErrNoToken(t *testing.T) {
	t.Parallel()

	_, err := LoadToken(filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("err = %v, want ErrNoToken", err)
	}
}

func TestDeleteToken_MissingFileIsNotAnError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token.json")
	if err := DeleteToken(path); err != nil {
		t.Fatalf("DeleteToken on missing file: %v", err)
	}

	if err := SaveToken(path, &oauth2.Token{AccessToken: "x"}); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := DeleteToken(path); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if _, err := LoadToken(path); !errors.Is(err, ErrNoToken) {
		t.Fatal("token still present after delete")
	}
}

func TestFetchWindowStart(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 18, 15, 30, 0, 0, time.UTC)
	got := FetchWindowStart(now, 1, time.UTC)
	want := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("FetchWindowStart = %v, want %v", got, want)
	}
}
