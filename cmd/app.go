/*
Copyright © 2025 caselens
*/
package cmd

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"

	"github.com/caselens/casefile-be/config"
	"github.com/caselens/casefile-be/database"
	"github.com/caselens/casefile-be/repository"
	"github.com/caselens/casefile-be/service"
	"github.com/caselens/casefile-be/worker"
)

// app holds everything the commands wire together: config, stores,
// repositories and services.
type app struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
	mongo  *mongo.Client
	runner *worker.Runner

	fragments *database.FragmentStore

	users         repository.UserRepo
	cases         repository.CaseRepo
	documents     repository.DocumentRepo
	conversations repository.ConversationRepo
	messages      repository.MessageRepo
	transactions  repository.TransactionRepo

	userService     *service.UserService
	documentService *service.DocumentService
	ingestService   *service.IngestService
	ragService      *service.RAGService
	chatService     *service.ChatService
	financial       *service.FinancialService
	files           *service.FileService
}

func buildApp(configPath string) (*app, error) {
	zl, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	logger := zl.Sugar()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	client, err := database.NewMongoClient(cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Database)

	fragments, err := database.NewFragmentStore(cfg.Weaviate, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		mongo:     client,
		runner:    worker.NewRunner(logger, 30*time.Minute),
		fragments: fragments,

		users:         repository.NewUserRepo(db.Collection("users")),
		cases:         repository.NewCaseRepo(db.Collection("cases")),
		documents:     repository.NewDocumentRepo(db.Collection("documents")),
		conversations: repository.NewConversationRepo(db.Collection("conversations")),
		messages:      repository.NewMessageRepo(db.Collection("messages")),
		transactions:  repository.NewTransactionRepo(db.Collection("transactions")),
	}

	openAI := service.NewOpenAIService(cfg.OpenAI)
	var generator service.Generator = openAI
	var embedder service.Embedder = openAI
	if cfg.Provider == "gemini" {
		gemini, err := service.NewGeminiService(cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("failed to init gemini: %w", err)
		}
		generator = gemini
		embedder = gemini
	}

	counter, err := service.NewTokenCounter(cfg.OpenAI.ChatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to init token counter: %w", err)
	}
	chunker := service.NewChunkService(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap, counter)

	files, err := service.NewFileService(cfg.UploadDir)
	if err != nil {
		return nil, err
	}
	// Transcription always goes through Whisper, regardless of provider.
	extractor := service.NewExtractService(openAI, cfg.OCR, logger)

	a.files = files
	a.userService = service.NewUserService(a.users)
	a.financial = service.NewFinancialService(generator, a.transactions, logger)
	a.ingestService = service.NewIngestService(a.documents, files, extractor, chunker, embedder, fragments, a.financial, a.runner, logger)
	a.ragService = service.NewRAGService(embedder, generator, fragments, a.documents, cfg.RAG, cfg.OpenAI, logger)
	a.chatService = service.NewChatService(a.conversations, a.messages, a.cases, a.ragService, a.runner, logger)
	a.documentService = service.NewDocumentService(a.documents, a.cases, a.transactions, files, fragments, a.ingestService, a.financial, a.runner, logger)

	return a, nil
}
