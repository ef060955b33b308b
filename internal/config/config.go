package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	stlerr "github.com/kkkunny/stl/error"
	stllog "github.com/kkkunny/stl/log"
)

const (
	defaultListenAddr      = ":8080"
	defaultModel           = "gpt-4o-mini"
	defaultMaxContextChars = 60000
)

// .env 必须先于其余变量加载
var dotenvLoaded = loadDotenv()

var (
	Debug  = dotenvLoaded && envBool("PDFTUTOR_DEBUG")
	Logger = stllog.Default(Debug)
)

var (
	ListenAddr      string
	OpenAIKey       string
	OpenAIBaseURL   string
	Model           string
	MaxContextChars int
)

func init() {
	ListenAddr = envOr("PDFTUTOR_LISTEN", defaultListenAddr)
	OpenAIKey = os.Getenv("OPENAI_API_KEY")
	OpenAIBaseURL = os.Getenv("OPENAI_BASE_URL")
	Model = envOr("PDFTUTOR_MODEL", defaultModel)
	MaxContextChars = envInt("PDFTUTOR_MAX_CONTEXT_CHARS", defaultMaxContextChars)

	initProxy()
}

func loadDotenv() bool {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		stlerr.Must(stlerr.ErrorWrap(err))
	}
	return true
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
