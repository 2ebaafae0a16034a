package haslocal

import (
	"runtime"

	"github.com/alexedwards/argon2id"
	"github.com/jamesread/strategyshim/authpublic"
	log "github.com/sirupsen/logrus"
)

var defaultParams = argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  4,
	Parallelism: uint8(runtime.NumCPU()),
	SaltLength:  16,
	KeyLength:   32,
}

// dummyHash is compared against when the user does not exist, so unknown
// usernames take as long as wrong passwords.
var dummyHash string

func init() {
	hash, err := argon2id.CreateHash("dummy-password-for-timing-attack-prevention", &defaultParams)
	if err != nil {
		dummyHash = "$argon2id$v=19$m=65536,t=4,p=1$dGVzdHNhbHRlc3Q$dGVzdGhhc2h0ZXN0aGFzaHRlc3RoYXNo"
		log.Errorf("Failed to generate dummy hash, using fallback: %v", err)
	} else {
		dummyHash = hash
	}
}

func CreateHash(password string) (string, error) {
	hash, err := argon2id.CreateHash(password, &defaultParams)

	if err != nil {
		log.Errorf("Error creating hash: %v", err)
		return "", err
	}

	return hash, nil
}

func comparePasswordAndHash(password, hash string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, hash)

	if err != nil {
		log.Errorf("Error comparing password and hash: %v", err)
		return false
	}

	return match
}

// CheckUserPassword checks if the provided username and password are valid.
// To prevent timing attacks, this function always performs a password hash
// comparison, even when the user doesn't exist, using a dummy hash.
func CheckUserPassword(cfg *authpublic.Config, username, password string) bool {
	foundUser := cfg.FindUserByUsername(username)

	// Always perform hash comparison to prevent timing attacks
	if foundUser == nil {
		comparePasswordAndHash(password, dummyHash)
		log.WithFields(log.Fields{
			"username": username,
		}).Warn("Failed to check password for user, as username was not found")
		return false
	}

	if !comparePasswordAndHash(password, foundUser.Password) {
		log.WithFields(log.Fields{
			"username": username,
		}).Warn("Password does not match for user")
		return false
	}

	return true
}
