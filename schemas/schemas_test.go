// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schemas

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codello.dev/asn1map/ber"
	"codello.dev/asn1map/schema"
)

var opts = &ber.Options{Rules: Rules()}

// field returns the value at the slash separated path below v.
func field(t *testing.T, v ber.Value, path ...string) ber.Value {
	t.Helper()
	for _, name := range path {
		if c, ok := v.(ber.Choice); ok {
			v = c.Value
		}
		c, ok := v.(ber.Constructed)
		require.True(t, ok, "%s: %T is not constructed", name, v)
		var err error
		v, err = c.Get(name)
		require.NoError(t, err)
		require.NotNil(t, v, "field %s is absent", name)
	}
	return v
}

func assertInt(t *testing.T, want *big.Int, v ber.Value) {
	t.Helper()
	i, ok := v.(ber.Integer)
	require.True(t, ok, "%T is not an Integer", v)
	assert.Zero(t, want.Cmp(i.Int), "got %s, want %s", i.Int, want)
}

// roundTrip decodes data as s and asserts that the value encodes to data with
// and without cached encodings.
func roundTrip(t *testing.T, data []byte, s *schema.Schema) ber.Value {
	t.Helper()
	v, err := ber.Decode(data, s, opts)
	require.NoError(t, err)
	enc, err := ber.Encode(v, s)
	require.NoError(t, err)
	assert.Equal(t, data, enc)
	enc, err = ber.EncodeCanonical(v, s)
	require.NoError(t, err)
	assert.Equal(t, data, enc)
	return v
}

func TestValidate(t *testing.T) {
	for _, name := range Names() {
		s, ok := Lookup(name)
		require.True(t, ok, name)
		assert.NoError(t, s.Validate(), name)
	}
	_, ok := Lookup("Certificate")
	assert.False(t, ok)
}

func TestRSA(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	t.Run("PublicKey", func(t *testing.T) {
		v := roundTrip(t, x509.MarshalPKCS1PublicKey(&key.PublicKey), RSAPublicKey)
		assertInt(t, key.N, field(t, v, "modulus"))
		assertInt(t, big.NewInt(int64(key.E)), field(t, v, "publicExponent"))
	})
	t.Run("PrivateKey", func(t *testing.T) {
		v := roundTrip(t, x509.MarshalPKCS1PrivateKey(key), RSAPrivateKey)
		assert.Equal(t, "two-prime", field(t, v, "version").(ber.Integer).Name)
		assertInt(t, key.D, field(t, v, "privateExponent"))
		assertInt(t, key.Primes[0], field(t, v, "prime1"))
		assertInt(t, key.Primes[1], field(t, v, "prime2"))
	})
	t.Run("SubjectPublicKeyInfo", func(t *testing.T) {
		der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		require.NoError(t, err)
		v := roundTrip(t, der, SubjectPublicKeyInfo)
		assert.Equal(t, ber.Null{}, field(t, v, "algorithm", "parameters"))
		assertInt(t, key.N, field(t, v, "subjectPublicKey", "modulus"))
	})
	t.Run("PKCS8", func(t *testing.T) {
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		v := roundTrip(t, der, PrivateKeyInfo)
		assert.Equal(t, "v1", field(t, v, "version").(ber.Integer).Name)
		assertInt(t, key.D, field(t, v, "privateKey", "privateExponent"))
	})
}

func TestEC(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	t.Run("ECPrivateKey", func(t *testing.T) {
		der, err := x509.MarshalECPrivateKey(key)
		require.NoError(t, err)
		v := roundTrip(t, der, ECPrivateKey)
		assert.Equal(t, "ecPrivkeyVer1", field(t, v, "version").(ber.Integer).Name)
		params := field(t, v, "parameters").(ber.Choice)
		assert.Equal(t, "namedCurve", params.Name)
		assert.Equal(t, OIDNamedCurveP256, params.Value.(ber.OID).String())
		assert.Equal(t, 65*8, field(t, v, "publicKey").(ber.BitString).BitLength)
	})
	t.Run("PKCS8", func(t *testing.T) {
		der, err := x509.MarshalPKCS8PrivateKey(key)
		require.NoError(t, err)
		v := roundTrip(t, der, PrivateKeyInfo)
		params := field(t, v, "privateKeyAlgorithm", "parameters").(ber.Choice)
		assert.Equal(t, OIDNamedCurveP256, params.Value.(ber.OID).String())
		inner := field(t, v, "privateKey")
		require.IsType(t, ber.Constructed{}, inner)
		scalar := field(t, inner, "privateKey").(ber.OctetString)
		assert.Zero(t, key.D.Cmp(new(big.Int).SetBytes(scalar)))
	})
	t.Run("SubjectPublicKeyInfo", func(t *testing.T) {
		der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		require.NoError(t, err)
		v := roundTrip(t, der, SubjectPublicKeyInfo)
		assert.Equal(t, "namedCurve", field(t, v, "algorithm", "parameters").(ber.Choice).Name)
		assert.IsType(t, ber.BitString{}, field(t, v, "subjectPublicKey"))
	})
}

func TestCharacteristicTwo(t *testing.T) {
	encode := func(s *schema.Schema, x any) []byte {
		v, err := ber.ValueOf(s, x)
		require.NoError(t, err)
		b, err := ber.Encode(v, s)
		require.NoError(t, err)
		return b
	}
	pentanomial := encode(Pentanomial, map[string]any{"k1": 3, "k2": 6, "k3": 7})
	field2 := encode(CharacteristicTwo, map[string]any{
		"m":          163,
		"basis":      OIDPentanomialBasis,
		"parameters": pentanomial,
	})
	fieldID := encode(FieldID, map[string]any{
		"fieldType":  OIDCharacteristicTwo,
		"parameters": field2,
	})

	v := roundTrip(t, fieldID, FieldID)
	assertInt(t, big.NewInt(163), field(t, v, "parameters", "m"))
	assertInt(t, big.NewInt(3), field(t, v, "parameters", "parameters", "k1"))
	assertInt(t, big.NewInt(7), field(t, v, "parameters", "parameters", "k3"))

	x, err := ber.Export(v)
	require.NoError(t, err)
	assert.Equal(t, "map[basis:1.2.840.10045.1.2.3.3 m:163 parameters:map[k1:3 k2:6 k3:7]]", fmt.Sprint(x.(map[string]any)["parameters"]))

	prime := encode(FieldID, map[string]any{
		"fieldType":  OIDPrimeField,
		"parameters": []byte{0x02, 0x02, 0x00, 0xFF},
	})
	v = roundTrip(t, prime, FieldID)
	assertInt(t, big.NewInt(255), field(t, v, "parameters"))

	trinomial := encode(CharacteristicTwo, map[string]any{
		"m":          233,
		"basis":      OIDTrinomialBasis,
		"parameters": []byte{0x02, 0x01, 0x4A},
	})
	v = roundTrip(t, trinomial, CharacteristicTwo)
	assertInt(t, big.NewInt(74), field(t, v, "parameters"))
}

func TestExtensions(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "asn1map test"},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLen:            3,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, ext := range cert.Extensions {
		data, err := asn1.Marshal(ext)
		require.NoError(t, err)
		v := roundTrip(t, data, Extension)
		value := field(t, v, "extnValue")
		id := ext.Id.String()
		seen[id] = true
		switch id {
		case OIDBasicConstraints:
			assert.Equal(t, ber.Boolean(true), field(t, v, "critical"))
			assert.Equal(t, ber.Boolean(true), field(t, value, "cA"))
			assertInt(t, big.NewInt(3), field(t, value, "pathLenConstraint"))
		case OIDKeyUsage:
			assert.Equal(t, []string{"digitalSignature", "keyCertSign"}, value.(ber.BitString).Names)
		case OIDExtKeyUsage:
			assert.Equal(t, "1.3.6.1.5.5.7.3.1", field(t, value, "0").(ber.OID).String())
		case OIDSubjectKeyIdentifier:
			assert.Equal(t, ber.OctetString(append([]byte{0x04, byte(len(cert.SubjectKeyId))}, cert.SubjectKeyId...)), value)
		default:
			assert.IsType(t, ber.OctetString{}, value)
		}
	}
	assert.True(t, seen[OIDBasicConstraints])
	assert.True(t, seen[OIDKeyUsage])
	assert.True(t, seen[OIDExtKeyUsage])
}

func TestRules_Tolerant(t *testing.T) {
	// The extnValue is not a valid BasicConstraints encoding.
	data := []byte{0x30, 0x0B,
		0x06, 0x03, 0x55, 0x1D, 0x13,
		0x04, 0x04, 0x30, 0x02, 0x01, 0x01}
	_, err := ber.Decode(data, Extension, opts)
	require.Error(t, err)

	v, err := ber.Decode(data, Extension, &ber.Options{Tolerant: true, Rules: Rules()})
	require.NoError(t, err)
	value := field(t, v, "extnValue")
	require.IsType(t, ber.Malformed{}, value)
	enc, err := ber.EncodeCanonical(v, Extension)
	require.NoError(t, err)
	assert.Equal(t, data, enc)
}
