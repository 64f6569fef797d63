package envelope

// Encrypt seals plaintext into a self-describing container using the
// default derivation parameters. A fresh salt and nonce are generated every
// call, so encrypting the same plaintext twice never yields the same bytes.
func Encrypt(pass Passphrase, data Plaintext) (Encrypted, error) {
	gen, err := NewKeyGenerator()
	if err != nil {
		return nil, err
	}
	return EncryptWith(gen, pass, data)
}

// EncryptWith is Encrypt with caller-supplied derivation parameters.
func EncryptWith(gen *KeyGenerator, pass Passphrase, data Plaintext) (Encrypted, error) {
	salt, err := gen.GenerateSalt()
	if err != nil {
		return nil, err
	}
	key, err := gen.DeriveKey(pass, salt)
	if err != nil {
		return nil, err
	}
	defer key.Wipe()

	nonce, err := GenerateNonce()
	if err != nil {
		return nil, err
	}
	sealed, err := Seal(key, nonce, data)
	if err != nil {
		return nil, err
	}
	return Encode(salt, nonce, sealed)
}

// Decrypt opens a container produced by Encrypt. Format errors surface
// before any key derivation; tag verification failures surface as
// ErrAuthentication whether the passphrase was wrong or the data was
// tampered with.
func Decrypt(pass Passphrase, data Encrypted) (Plaintext, error) {
	gen, err := NewKeyGenerator()
	if err != nil {
		return nil, err
	}
	return DecryptWith(gen, pass, data)
}

// DecryptWith is Decrypt with caller-supplied derivation parameters, which
// must match the ones used to encrypt.
func DecryptWith(gen *KeyGenerator, pass Passphrase, data Encrypted) (Plaintext, error) {
	c, err := Decode(data)
	if err != nil {
		return nil, err
	}
	key, err := gen.DeriveKey(pass, c.Salt)
	if err != nil {
		return nil, err
	}
	defer key.Wipe()
	return Open(key, c.Nonce, c.Ciphertext)
}
