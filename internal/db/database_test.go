package db

import (
	"os"
	"testing"
)

func clearBootstrapEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"BOOTSTRAP_OWNER_USERNAME",
		"BOOTSTRAP_OWNER_PASSWORD",
		"BOOTSTRAP_OWNER_FULL_NAME",
		"BOOTSTRAP_OWNER_EMAIL",
		"BOOTSTRAP_OWNER_PHONE",
	}
	for _, key := range keys {
		os.Unsetenv(key)
	}
	t.Cleanup(func() {
		for _, key := range keys {
			os.Unsetenv(key)
		}
	})
}

func TestBootstrapOwnerConfig_NotConfigured(t *testing.T) {
	clearBootstrapEnv(t)

	if _, ok := bootstrapOwnerConfig(); ok {
		t.Fatal("expected no bootstrap owner without env vars")
	}

	// password alone is not enough
	os.Setenv("BOOTSTRAP_OWNER_PASSWORD", "hunter2")
	if _, ok := bootstrapOwnerConfig(); ok {
		t.Fatal("expected no bootstrap owner without a username")
	}
}

func TestBootstrapOwnerConfig_Defaults(t *testing.T) {
	clearBootstrapEnv(t)
	os.Setenv("BOOTSTRAP_OWNER_USERNAME", "boss")
	os.Setenv("BOOTSTRAP_OWNER_PASSWORD", "hunter2")

	owner, ok := bootstrapOwnerConfig()
	if !ok {
		t.Fatal("expected bootstrap owner to be configured")
	}
	if owner.Username != "boss" || owner.Password != "hunter2" {
		t.Fatalf("unexpected credentials: %+v", owner)
	}
	if owner.FullName != "boss" || owner.Email != "boss@local" || owner.Phone == "" {
		t.Fatalf("unexpected defaults: %+v", owner)
	}
}

func TestBootstrapOwnerConfig_ExplicitFields(t *testing.T) {
	clearBootstrapEnv(t)
	os.Setenv("BOOTSTRAP_OWNER_USERNAME", "boss")
	os.Setenv("BOOTSTRAP_OWNER_PASSWORD", "hunter2")
	os.Setenv("BOOTSTRAP_OWNER_FULL_NAME", "Store Owner")
	os.Setenv("BOOTSTRAP_OWNER_EMAIL", "owner@example.com")
	os.Setenv("BOOTSTRAP_OWNER_PHONE", "+12065550100")

	owner, ok := bootstrapOwnerConfig()
	if !ok {
		t.Fatal("expected bootstrap owner to be configured")
	}
	if owner.FullName != "Store Owner" || owner.Email != "owner@example.com" || owner.Phone != "+12065550100" {
		t.Fatalf("explicit fields not honored: %+v", owner)
	}
}
