package storage

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/credihub/fgts-api/internal/config"
	"github.com/credihub/fgts-api/internal/models"
)

// Collection names used by the origination core
const (
	collSimulations  = "fgts_simulations"
	collProposals    = "fgts_proposals"
	collSessions     = "sessions"
	collBankConfigs  = "bank_configs"
	collTableConfigs = "table_configs"
	collBatchResults = "batch_simulations"
)

// Store is the MongoDB document store shared by the orchestration
// services. Documents are plain maps/structs with $set partial merges;
// there is no optimistic concurrency control (last write wins per field).
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *logrus.Logger
}

// NewStore connects to MongoDB and returns a store bound to the
// configured database.
func NewStore(ctx context.Context, cfg config.MongoConfig, logger *logrus.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.WithField("database", cfg.Database).Info("MongoDB connection established")

	return &Store{
		client: client,
		db:     client.Database(cfg.Database),
		logger: logger,
	}, nil
}

// Close disconnects the underlying client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Health returns storage health status
func (s *Store) Health() map[string]interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.client.Ping(ctx, nil); err != nil {
		return map[string]interface{}{"status": "unhealthy", "error": err.Error()}
	}
	return map[string]interface{}{"status": "healthy"}
}

// --- Simulations ---

// InsertSimulation appends one simulation record. History is never
// overwritten: each simulate call produces a new document.
func (s *Store) InsertSimulation(ctx context.Context, rec models.SimulationRecord) error {
	_, err := s.db.Collection(collSimulations).InsertOne(ctx, rec)
	if err != nil {
		return fmt.Errorf("failed to insert simulation: %w", err)
	}
	return nil
}

// FindSimulationByFinancialID returns the simulation record owning a
// financial id, or nil when unknown.
func (s *Store) FindSimulationByFinancialID(ctx context.Context, financialID string) (*models.SimulationRecord, error) {
	var rec models.SimulationRecord
	err := s.db.Collection(collSimulations).
		FindOne(ctx, bson.M{"financial_id": financialID}).
		Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find simulation: %w", err)
	}
	return &rec, nil
}

// SimulationHistory returns all simulations for a CPF, newest first,
// optionally filtered by bank.
func (s *Store) SimulationHistory(ctx context.Context, cpf, bankName string) ([]models.SimulationRecord, error) {
	query := bson.M{"cpf": cpf}
	if bankName != "" {
		query["bank_name"] = bankName
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := s.db.Collection(collSimulations).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query simulation history: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.SimulationRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode simulation history: %w", err)
	}
	return records, nil
}

// ListSimulations returns simulations paginated, newest first
func (s *Store) ListSimulations(ctx context.Context, page, perPage int, bankName, cpf string) (*models.Page, error) {
	query := bson.M{}
	if bankName != "" {
		query["bank_name"] = bankName
	}
	if cpf != "" {
		query["cpf"] = cpf
	}
	return s.paginate(ctx, collSimulations, query, page, perPage, "timestamp")
}

// DistinctCPFs returns the CPFs that have at least one simulation
func (s *Store) DistinctCPFs(ctx context.Context) ([]string, error) {
	values, err := s.db.Collection(collSimulations).Distinct(ctx, "cpf", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to list distinct CPFs: %w", err)
	}

	cpfs := make([]string, 0, len(values))
	for _, v := range values {
		if cpf, ok := v.(string); ok {
			cpfs = append(cpfs, cpf)
		}
	}
	return cpfs, nil
}

// --- Proposals ---

// UpsertProposal stores the outcome of a submission attempt keyed by
// financial id.
func (s *Store) UpsertProposal(ctx context.Context, rec models.ProposalRecord) error {
	_, err := s.db.Collection(collProposals).UpdateOne(
		ctx,
		bson.M{"financial_id": rec.FinancialID},
		bson.M{"$set": rec},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert proposal: %w", err)
	}
	return nil
}

// SetProposalStage advances the persisted saga cursor for a submission
func (s *Store) SetProposalStage(ctx context.Context, financialID string, stage models.ProposalStage) error {
	_, err := s.db.Collection(collProposals).UpdateOne(
		ctx,
		bson.M{"financial_id": financialID},
		bson.M{"$set": bson.M{"stage": stage, "timestamp": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to set proposal stage: %w", err)
	}
	return nil
}

// FindBankForContract resolves the bank that owns a contract number
func (s *Store) FindBankForContract(ctx context.Context, contractNumber string) (string, error) {
	var rec models.ProposalRecord
	err := s.db.Collection(collProposals).
		FindOne(ctx, bson.M{"contract_number": contractNumber}).
		Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find proposal by contract: %w", err)
	}
	return rec.BankName, nil
}

// ProposalHistory returns proposals matching a financial id and/or
// contract number, newest first.
func (s *Store) ProposalHistory(ctx context.Context, financialID, contractNumber string) ([]models.ProposalRecord, error) {
	if financialID == "" && contractNumber == "" {
		return nil, nil
	}

	query := bson.M{}
	if financialID != "" {
		query["financial_id"] = financialID
	}
	if contractNumber != "" {
		query["contract_number"] = contractNumber
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := s.db.Collection(collProposals).Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposal history: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.ProposalRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode proposal history: %w", err)
	}
	return records, nil
}

// ListProposals returns proposals paginated, newest first
func (s *Store) ListProposals(ctx context.Context, page, perPage int, bankName string, success *bool) (*models.Page, error) {
	query := bson.M{}
	if bankName != "" {
		query["bank_name"] = bankName
	}
	if success != nil {
		query["success"] = *success
	}
	return s.paginate(ctx, collProposals, query, page, perPage, "timestamp")
}

// --- Sessions ---

// SetSessionData upserts one field of a session document ($set merge,
// concurrent writers to the same field are last-write-wins).
func (s *Store) SetSessionData(ctx context.Context, sessionID, field string, value interface{}) error {
	_, err := s.db.Collection(collSessions).UpdateOne(
		ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{field: value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to set session data: %w", err)
	}
	return nil
}

// GetSessionData reads one field of a session document, nil when the
// session or field is absent.
func (s *Store) GetSessionData(ctx context.Context, sessionID, field string) (interface{}, error) {
	var doc bson.M
	err := s.db.Collection(collSessions).
		FindOne(ctx, bson.M{"session_id": sessionID}).
		Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session data: %w", err)
	}
	return doc[field], nil
}

// StoreSimulationData attaches a simulation snapshot to a session
func (s *Store) StoreSimulationData(ctx context.Context, sessionID string, data map[string]interface{}) error {
	_, err := s.db.Collection(collSessions).UpdateOne(
		ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"simulation_data": data,
			"simulation_date": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to store simulation data: %w", err)
	}
	return nil
}

// StoreProposalData attaches a proposal snapshot to a session
func (s *Store) StoreProposalData(ctx context.Context, sessionID string, data map[string]interface{}) error {
	_, err := s.db.Collection(collSessions).UpdateOne(
		ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"proposal_data": data,
			"proposal_date": time.Now().UTC(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to store proposal data: %w", err)
	}
	return nil
}

// ListSessionsWithCPF returns every session document that carries a CPF
// under any of the known field paths.
func (s *Store) ListSessionsWithCPF(ctx context.Context) ([]map[string]interface{}, error) {
	query := bson.M{"$or": []bson.M{
		{"customer_data.customer_info.cpf": bson.M{"$exists": true, "$ne": nil}},
		{"customer_data.borrower.cpf": bson.M{"$exists": true, "$ne": nil}},
		{"cpf": bson.M{"$exists": true, "$ne": nil}},
		{"customer_data.cpf": bson.M{"$exists": true, "$ne": nil}},
		{"personal_info.cpf": bson.M{"$exists": true, "$ne": nil}},
		{"document.cpf": bson.M{"$exists": true, "$ne": nil}},
		{"user.cpf": bson.M{"$exists": true, "$ne": nil}},
	}}

	cursor, err := s.db.Collection(collSessions).Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []map[string]interface{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}
	return docs, nil
}

// --- Batch rollups ---

// UpsertBatchRecord stores the latest per-bank outcome for a CPF and
// pushes the run into the record's history array.
func (s *Store) UpsertBatchRecord(ctx context.Context, cpf, sessionID string, outcomes []models.BankOutcome, anySuccess bool) error {
	now := time.Now().UTC()
	snapshot := models.BatchSnapshot{Timestamp: now, Results: outcomes, AnySuccess: anySuccess}

	_, err := s.db.Collection(collBatchResults).UpdateOne(
		ctx,
		bson.M{"cpf": cpf},
		bson.M{
			"$set": bson.M{
				"last_updated": now,
				"session_id":   sessionID,
				"results":      outcomes,
				"any_success":  anySuccess,
			},
			"$setOnInsert": bson.M{"created_at": now},
			"$push":        bson.M{"simulations": snapshot},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert batch record: %w", err)
	}
	return nil
}

// ListBatchResults returns batch rollups paginated, newest first
func (s *Store) ListBatchResults(ctx context.Context, page, perPage int, cpf, bankName string) (*models.Page, error) {
	query := bson.M{}
	if cpf != "" {
		query["cpf"] = cpf
	}
	if bankName != "" {
		query["results.bank"] = bankName
	}
	return s.paginate(ctx, collBatchResults, query, page, perPage, "last_updated")
}

// --- Config documents ---

// GetBankConfig reads the single bank configuration document, nil when
// missing.
func (s *Store) GetBankConfig(ctx context.Context) (*models.BankConfigDoc, error) {
	var doc models.BankConfigDoc
	err := s.db.Collection(collBankConfigs).FindOne(ctx, bson.M{}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bank config: %w", err)
	}
	return &doc, nil
}

// SaveBankConfig replaces the bank configuration document
func (s *Store) SaveBankConfig(ctx context.Context, doc *models.BankConfigDoc) error {
	_, err := s.db.Collection(collBankConfigs).ReplaceOne(
		ctx, bson.M{}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save bank config: %w", err)
	}
	return nil
}

// GetTableConfig reads the single fee table configuration document
func (s *Store) GetTableConfig(ctx context.Context) (*models.TableConfigDoc, error) {
	var doc models.TableConfigDoc
	err := s.db.Collection(collTableConfigs).FindOne(ctx, bson.M{}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table config: %w", err)
	}
	return &doc, nil
}

// SaveTableConfig replaces the fee table configuration document
func (s *Store) SaveTableConfig(ctx context.Context, doc *models.TableConfigDoc) error {
	_, err := s.db.Collection(collTableConfigs).ReplaceOne(
		ctx, bson.M{}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save table config: %w", err)
	}
	return nil
}

// paginate runs a paged query sorted descending by sortField
func (s *Store) paginate(ctx context.Context, collection string, query bson.M, page, perPage int, sortField string) (*models.Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}

	coll := s.db.Collection(collection)
	total, err := coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: -1}}).
		SetSkip(int64((page - 1) * perPage)).
		SetLimit(int64(perPage))

	cursor, err := coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer cursor.Close(ctx)

	var items []bson.M
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	if totalPages == 0 {
		totalPages = 1
	}

	return &models.Page{
		Items:      items,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalItems: total,
	}, nil
}
