package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/clinmodel/eclbridge/cmd/modelsync/client"
	"github.com/clinmodel/eclbridge/util"
)

func init() {
	if err := godotenv.Load(".env"); err != nil {
		log.Default().Fatal("Error loading .env file")
	}
}

func main() {
	c := client.NewModelRepositoryClient()
	token, err := c.Token()
	if err != nil {
		log.Default().Fatal(err)
	}
	c.SetToken(token)

	models, err := c.ListModels(os.Getenv("MODEL_PROJECT"))
	if err != nil {
		log.Default().Fatal(err)
	}

	modelPath := util.EnvOrDefault("MODEL_PATH", "config/models")
	if err := os.MkdirAll(modelPath, 0755); err != nil {
		log.Default().Fatal(err)
	}

	for _, m := range models {
		data, err := c.DownloadModel(m.ID)
		if err != nil {
			log.Default().Printf("skipping model %s: %v", m.ID, err)
			continue
		}

		outFile := filepath.Join(modelPath, m.ID+".json")
		if err := os.WriteFile(outFile, data, 0644); err != nil {
			log.Default().Fatal(err)
		}
		log.Default().Printf("downloaded model %s (%s) to %s", m.ID, m.Name, outFile)
	}

	log.Default().Printf("synced %d model packages", len(models))
}
