// Copyright 2025 Kim Wittenburg. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package schemas

import (
	"codello.dev/asn1map/ber"
	"codello.dev/asn1map/schema"
)

// Rules returns rules that decode nested encodings of the structures in this
// package:
//
//   - parameters of an [AlgorithmIdentifier], [FieldID] or
//     [CharacteristicTwo], selected by the algorithm, field type or basis
//   - extnValue of an [Extension], selected by extnID
//   - privateKey of a [PrivateKeyInfo], selected by the private key algorithm
//   - subjectPublicKey of a [SubjectPublicKeyInfo] holding an RSA key
//
// Fields with unknown identifiers are left unchanged. The returned map can be
// modified by the caller.
func Rules() map[string]ber.Rule {
	return map[string]ber.Rule{
		"parameters":       decodeParameters,
		"extnValue":        decodeExtension,
		"privateKey":       decodePrivateKey,
		"subjectPublicKey": decodePublicKey,
	}
}

// identifier returns the object identifier in the field name of c in dotted
// notation. The result is empty if the field is absent or of another type.
func identifier(c ber.Constructed, name string) string {
	v, err := c.Get(name)
	if err != nil {
		return ""
	}
	oid, ok := v.(ber.OID)
	if !ok {
		return ""
	}
	return oid.String()
}

func decodeParameters(ctx ber.RuleContext, v ber.Value) (ber.Value, error) {
	raw, ok := v.(ber.Raw)
	if !ok {
		return v, nil
	}
	var s *schema.Schema
	switch {
	case identifier(ctx.Parent, "fieldType") != "":
		switch identifier(ctx.Parent, "fieldType") {
		case OIDPrimeField:
			s = schema.Integer()
		case OIDCharacteristicTwo:
			s = CharacteristicTwo
		}
	case identifier(ctx.Parent, "basis") != "":
		switch identifier(ctx.Parent, "basis") {
		case OIDGaussianBasis:
			s = schema.Null()
		case OIDTrinomialBasis:
			s = schema.Integer()
		case OIDPentanomialBasis:
			s = Pentanomial
		}
	default:
		switch identifier(ctx.Parent, "algorithm") {
		case OIDECPublicKey:
			s = ECParameters
		case OIDRSAEncryption:
			s = schema.Null()
		}
	}
	if s == nil {
		return v, nil
	}
	return ctx.Decode(raw.Bytes, s)
}

func decodeExtension(ctx ber.RuleContext, v ber.Value) (ber.Value, error) {
	data, ok := v.(ber.OctetString)
	s := extensionSchemas[identifier(ctx.Parent, "extnID")]
	if !ok || s == nil {
		return v, nil
	}
	return ctx.Decode(data, s)
}

func decodePrivateKey(ctx ber.RuleContext, v ber.Value) (ber.Value, error) {
	data, ok := v.(ber.OctetString)
	if !ok {
		return v, nil
	}
	alg, err := ctx.Parent.Get("privateKeyAlgorithm")
	if err != nil {
		return nil, err
	}
	c, ok := alg.(ber.Constructed)
	if !ok {
		return v, nil
	}
	switch identifier(c, "algorithm") {
	case OIDRSAEncryption:
		return ctx.Decode(data, RSAPrivateKey)
	case OIDECPublicKey:
		return ctx.Decode(data, ECPrivateKey)
	}
	return v, nil
}

func decodePublicKey(ctx ber.RuleContext, v ber.Value) (ber.Value, error) {
	bs, ok := v.(ber.BitString)
	if !ok || bs.BitLength%8 != 0 {
		return v, nil
	}
	alg, err := ctx.Parent.Get("algorithm")
	if err != nil {
		return nil, err
	}
	c, ok := alg.(ber.Constructed)
	if !ok || identifier(c, "algorithm") != OIDRSAEncryption {
		return v, nil
	}
	return ctx.Decode(bs.Bytes, RSAPublicKey)
}
