package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

var flagServerAddr *cli.StringFlag = &cli.StringFlag{
	Name:  "server-addr",
	Value: "http://127.0.0.1:8080",
	Usage: "Journal storage server address to request",
}
var flagProvider *cli.StringFlag = &cli.StringFlag{
	Name:  "provider",
	Value: "github",
	Usage: "Primary storage provider for uploads",
}
var flagEntityType *cli.StringFlag = &cli.StringFlag{
	Name:  "entity-type",
	Value: "article",
	Usage: "Owning entity kind (article, issue, review, author_profile, supplementary)",
}
var flagEntityID *cli.StringFlag = &cli.StringFlag{
	Name:     "entity-id",
	Required: true,
	Usage:    "Owning entity identifier",
}
var flagPrimary *cli.BoolFlag = &cli.BoolFlag{
	Name:  "primary",
	Value: false,
	Usage: "Mark the upload as the entity's primary file",
}

func main() {
	app := &cli.App{
		Name:  "storage-admin",
		Usage: "Inspect and exercise the journal storage API",
		Flags: []cli.Flag{
			flagServerAddr,
		},
		Commands: []*cli.Command{
			{
				Name:  "health",
				Usage: "Probe every configured storage provider",
				Action: func(cCtx *cli.Context) error {
					return getJSON(cCtx.String(flagServerAddr.Name) + "/api/storage/health")
				},
			},
			{
				Name:  "usage",
				Usage: "Show per-provider storage usage",
				Action: func(cCtx *cli.Context) error {
					return getJSON(cCtx.String(flagServerAddr.Name) + "/api/storage/usage")
				},
			},
			{
				Name:      "replication",
				Usage:     "Show replication progress for a file",
				ArgsUsage: "<file-id>",
				Action: func(cCtx *cli.Context) error {
					fileID := cCtx.Args().First()
					if fileID == "" {
						return fmt.Errorf("file id argument is required")
					}
					return getJSON(cCtx.String(flagServerAddr.Name) + "/api/storage/files/" + fileID + "/replication")
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload a local file with redundancy",
				ArgsUsage: "<path>",
				Flags: []cli.Flag{
					flagProvider,
					flagEntityType,
					flagEntityID,
					flagPrimary,
				},
				Action: func(cCtx *cli.Context) error {
					path := cCtx.Args().First()
					if path == "" {
						return fmt.Errorf("file path argument is required")
					}
					return upload(cCtx, path)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func getJSON(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func upload(cCtx *cli.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	mw.WriteField("provider", cCtx.String(flagProvider.Name))
	mw.WriteField("entity_type", cCtx.String(flagEntityType.Name))
	mw.WriteField("entity_id", cCtx.String(flagEntityID.Name))
	mw.WriteField("is_primary", fmt.Sprintf("%t", cCtx.Bool(flagPrimary.Name)))
	if err := mw.Close(); err != nil {
		return err
	}

	resp, err := http.Post(cCtx.String(flagServerAddr.Name)+"/api/storage/files", mw.FormDataContentType(), &buf)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}
