package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"approval-flow/activities"
	"approval-flow/config"
	"approval-flow/logging"
	"approval-flow/shared"
	"approval-flow/storage"
	"approval-flow/workflow"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewDevelopmentLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync() // flushes buffer, if any

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    logging.NewTemporalLogger(logger),
	})
	if err != nil {
		logger.Fatal("Unable to create Temporal client", zap.Error(err))
	}
	defer temporalClient.Close()

	runMode := cfg.RunMode

	if runMode == config.RunModeWorker {
		startWorker(temporalClient, cfg, logger) // blocks
		return
	}

	if runMode == config.RunModeCombined {
		go startWorker(temporalClient, cfg, logger)
		logger.Info("Running in combined mode, waiting for worker to start...")
		time.Sleep(2 * time.Second)
	}

	publishDocument(temporalClient, cfg, logger)

	if runMode == config.RunModeCombined {
		select {} // keep the worker alive
	}
}

func openStore(cfg config.Config, logger *zap.Logger) (storage.Store, func(), error) {
	if cfg.Storage.Driver == "memory" {
		return storage.NewMemoryStore(), func() {}, nil
	}
	store, err := storage.OpenSQLiteStore(context.Background(), cfg.Storage.Path, logger)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

func startWorker(c client.Client, cfg config.Config, logger *zap.Logger) {
	logger.Info("Starting Worker...", zap.String("TaskQueue", cfg.Temporal.TaskQueue))

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Unable to open document store", zap.Error(err))
	}
	defer closeStore()

	cache, err := workflow.NewValidationCache(workflow.NewValidator(logger), cfg.Cache.Size, cfg.Cache.TTL, logger)
	if err != nil {
		logger.Fatal("Unable to create validation cache", zap.Error(err))
	}
	defer func() {
		cache.Validator().Metrics().LogMetrics(logger, "info")
		cache.Close()
	}()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	w.RegisterWorkflow(workflow.PublishWorkflow)
	w.RegisterActivity(&activities.PublishActivities{Store: store, Cache: cache})

	// worker.InterruptCh() listens for OS signals like Ctrl+C
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("Worker run failed", zap.Error(err))
	}
	logger.Info("Worker stopped.")
}

func loadDocument(path string) (shared.WorkflowDocument, error) {
	if path == "" {
		return workflow.GetSampleWorkflowDocument(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return shared.WorkflowDocument{}, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return workflow.LoadWorkflowDocumentFromJSON(data)
	}
	return workflow.LoadWorkflowDocumentFromYAML(data)
}

func publishDocument(c client.Client, cfg config.Config, logger *zap.Logger) {
	doc, err := loadDocument(cfg.WorkflowFile)
	if err != nil {
		logger.Fatal("Failed to load workflow document", zap.String("file", cfg.WorkflowFile), zap.Error(err))
	}

	documentID := strings.ReplaceAll(strings.ToLower(doc.Metadata.Name), " ", "-")
	if documentID == "" {
		documentID = "workflow"
	}

	workflowOptions := client.StartWorkflowOptions{
		ID:        "publish_" + documentID + "_" + time.Now().Format("20060102_150405"),
		TaskQueue: cfg.Temporal.TaskQueue,
	}

	ctx := context.Background()
	run, err := c.ExecuteWorkflow(ctx, workflowOptions, workflow.PublishWorkflow, workflow.PublishInput{
		DocumentID: documentID,
		Document:   doc,
	})
	if err != nil {
		logger.Error("Failed to start publish workflow", zap.Error(err))
		return
	}

	logger.Info("Publish workflow started",
		zap.String("WorkflowID", run.GetID()),
		zap.String("RunID", run.GetRunID()))

	var result workflow.PublishResult
	if err := run.Get(ctx, &result); err != nil {
		logger.Error("Publish workflow failed", zap.Error(err))
		return
	}

	for _, finding := range result.Report.Findings {
		logger.Info("Validation finding",
			zap.String("severity", string(finding.Severity)),
			zap.String("nodeID", finding.NodeID),
			zap.String("message", finding.Message))
	}
	logger.Info("Publish workflow completed",
		zap.Bool("published", result.Published),
		zap.String("documentID", result.DocumentID),
		zap.Int("errors", result.Report.ErrorCount),
		zap.Int("warnings", result.Report.WarningCount))
}
