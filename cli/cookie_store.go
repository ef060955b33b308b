package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	stlerr "github.com/kkkunny/stl/error"
)

// cookieStore 按站点保存登录cookie，下次可省略--cookie
type cookieStore struct {
	path string
	data map[string][]*http.Cookie
}

func defaultCookieStorePath() (string, error) {
	dir, err := stlerr.ErrorWith(os.UserConfigDir())
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pdftutor", "cookies.json"), nil
}

func loadCookieStore(path string) (*cookieStore, error) {
	store := &cookieStore{path: path, data: make(map[string][]*http.Cookie)}
	data, err := stlerr.ErrorWith(os.ReadFile(path))
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return store, nil
	} else if err != nil {
		return nil, err
	}
	if err = stlerr.ErrorWrap(json.Unmarshal(data, &store.data)); err != nil {
		return nil, err
	}
	return store, nil
}

func (store *cookieStore) save() error {
	err := stlerr.ErrorWrap(os.MkdirAll(filepath.Dir(store.path), 0700))
	if err != nil {
		return err
	}
	data, err := stlerr.ErrorWith(json.MarshalIndent(store.data, "", "  "))
	if err != nil {
		return err
	}
	return stlerr.ErrorWrap(os.WriteFile(store.path, data, 0600))
}

func (store *cookieStore) Get(site string) []*http.Cookie {
	return store.data[site]
}

func (store *cookieStore) Set(site string, cookies []*http.Cookie) error {
	store.data[site] = cookies
	return store.save()
}

// cookieSite 以host区分站点
func cookieSite(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}
