package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"photodoctor/internal/config"
	"photodoctor/internal/repository"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the product catalog into MongoDB",
	Long: `Replace the MongoDB products collection with the catalog of the
knowledge bundle. The server reads it when CATALOG_SOURCE=mongo.

Connection settings come from MONGO_URI and MONGO_DB.

Example:
  MONGO_URI=mongodb://localhost:27017 pdctl seed --knowledge ./deploy/knowledge`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	kb, err := loadBundle()
	if err != nil {
		return fmt.Errorf("knowledge bundle: %w", err)
	}
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer client.Disconnect(context.Background())

	repo := repository.NewCatalogRepo(client.Database(cfg.MongoDB))
	if err := repo.ReplaceAll(ctx, kb.Catalog); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products into %s.products\n", len(kb.Catalog), cfg.MongoDB)
	return nil
}
