package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/alecthomas/kingpin"
	"github.com/macrat/gistcache/lib-gistcache"
	"gopkg.in/yaml.v2"
)

var (
	endpoint = kingpin.Flag("endpoint", "The endpoint of gistcache API.").Default("http://localhost:8080/").URL()
)

func forceURL(rawURL string) *url.URL {
	if u, err := url.Parse(rawURL); err != nil {
		panic(err.Error())
	} else {
		return u
	}
}

func Get(path *url.URL) error {
	resp, err := http.Get((*endpoint).ResolveReference(path).String())
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var buf interface{}
	if err = json.Unmarshal(body, &buf); err != nil {
		return err
	}

	output, err := yaml.Marshal(buf)
	if err != nil {
		return err
	}

	fmt.Print(string(output))

	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
	return nil
}

func Delete(path *url.URL) error {
	req, err := http.NewRequest("DELETE", (*endpoint).ResolveReference(path).String(), nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var buf interface{}
	if err = json.Unmarshal(body, &buf); err != nil {
		return err
	}

	output, err := yaml.Marshal(buf)
	if err != nil {
		return err
	}

	fmt.Print(string(output))
	os.Exit(1)
	return nil
}

func ListCommand() {
	cmd := kingpin.Command("list", "Get the public gists of a GitHub user.")
	name := cmd.Arg("username", "GitHub user name to list.").Required().String()
	page := cmd.Flag("page", "Page number to get.").Short('p').Default("1").Int()
	perPage := cmd.Flag("per-page", "Number of gists per page.").Default("30").Int()

	cmd.Action(func(ctx *kingpin.ParseContext) error {
		username := gistcache.Username(*name)

		if err := username.Validate(); err != nil {
			return err
		}

		return Get(forceURL(fmt.Sprintf("%s?page=%d&per_page=%d", username, *page, *perPage)))
	})
}

func HealthCommand() {
	cmd := kingpin.Command("health", "Get the health of the gistcache server.")

	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return Get(forceURL("health"))
	})
}

func StatsCommand() {
	cmd := kingpin.Command("stats", "Get the cache usage of the gistcache server.")

	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return Get(forceURL("cache/stats"))
	})
}

func FlushCommand() {
	cmd := kingpin.Command("flush", "Remove all cached entries from the gistcache server.")

	cmd.Action(func(ctx *kingpin.ParseContext) error {
		return Delete(forceURL("cache"))
	})
}

func init() {
	ListCommand()
	HealthCommand()
	StatsCommand()
	FlushCommand()
}

func main() {
	kingpin.Parse()
}
