package env

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const accessToken = "MASTODON_ACCESS_TOKEN"
const gptToken = "GPT_TOKEN"

// Optional keys, read with Optional.
const (
	MastodonServer           = "MASTODON_SERVER"
	OpenAIEndpoint           = "OPENAI_ENDPOINT"
	OpenAIModel              = "OPENAI_MODEL"
	FactPrompt               = "FACT_PROMPT"
	PostgresConnectionString = "POSTGRES_CONNECTION_STRING"
	ListenAddress            = "LISTEN_ADDRESS"
)

type EmptyValueError struct {
	key string
}

func (e *EmptyValueError) Error() string {
	return "No environmental variable set for key " + e.key
}

func AccessToken(ref *string) bool { return env(accessToken, ref) }
func GPTToken(ref *string) bool    { return env(gptToken, ref) }

// Optional returns the value of key, or fallback when it is unset or empty.
func Optional(key, fallback string) string {
	value, valid := os.LookupEnv(key)
	if "" == value || !valid {
		return fallback
	}
	return value
}

// Load reads KEY=VALUE files into the environment without overriding
// variables that are already set. With no arguments it reads ./.env, and a
// missing file is not an error.
func Load(filenames ...string) error {
	if len(filenames) == 0 {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			return nil
		}
	}
	if err := godotenv.Load(filenames...); nil != err {
		return errors.Wrap(err, "unable to load env file")
	}
	return nil
}

func env(key string, ref *string) bool {
	value, valid := os.LookupEnv(key)
	if "" == value || !valid {
		log.Println(&EmptyValueError{key})
		return false
	}
	*ref = value
	return true
}
