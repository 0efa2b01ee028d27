package wgkey

import (
	"encoding/base64"
	"testing"
)

func TestGenerate(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	priv, err := base64.StdEncoding.DecodeString(kp.Private)
	if err != nil {
		t.Fatalf("private key not base64: %v", err)
	}
	pub, err := base64.StdEncoding.DecodeString(kp.Public)
	if err != nil {
		t.Fatalf("public key not base64: %v", err)
	}
	if len(priv) != 32 || len(pub) != 32 {
		t.Errorf("key lengths = %d/%d, want 32/32", len(priv), len(pub))
	}
	// Standard Curve25519 clamping.
	if priv[0]&7 != 0 {
		t.Error("low bits of private key not cleared")
	}
	if priv[31]&192 != 64 {
		t.Error("high bits of private key not clamped")
	}
}

func TestGenerateUnique(t *testing.T) {
	a, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	if a.Private == b.Private || a.Public == b.Public {
		t.Error("two generated keypairs should differ")
	}
}

func TestPublicKeyMatchesGenerate(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	pub, err := PublicKey(kp.Private)
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	if pub != kp.Public {
		t.Errorf("derived public %q != generated %q", pub, kp.Public)
	}
}

func TestPublicKeyRejectsBadInput(t *testing.T) {
	if _, err := PublicKey("not base64!!"); err == nil {
		t.Error("expected error for invalid base64")
	}
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := PublicKey(short); err == nil {
		t.Error("expected error for wrong key length")
	}
}

func TestStringHidesPrivateKey(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatal(err)
	}
	if kp.String() != kp.Public {
		t.Error("String should print the public key only")
	}
}
