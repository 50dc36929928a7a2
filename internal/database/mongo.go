package database

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"aprspass/entity"
	"aprspass/internal/config"
)

const (
	collectionRequests = "requests"
	collectionAdmins   = "admins"
)

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
}

func NewMongoClient(conf *config.Config) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
	}
	return client
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

// Setup ensures the indexes the store relies on. The unique index on the
// normalized callsign is what makes check-then-insert race-free: the
// engine rejects the second insert, not the application.
func (m *MongoDB) Setup() error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	requests := connection.Database(m.database).Collection(collectionRequests)
	_, err = requests.Indexes().CreateMany(m.ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "callsign", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "submitted_at", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("mongodb indexes: %w", err)
	}
	return nil
}

func (m *MongoDB) InsertRequest(req *entity.PasscodeRequest) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionRequests)
	_, err = collection.InsertOne(m.ctx, req)
	if mongo.IsDuplicateKeyError(err) {
		return entity.ErrDuplicateCallsign
	}
	return err
}

func (m *MongoDB) GetRequest(id string) (*entity.PasscodeRequest, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionRequests)
	filter := bson.D{{Key: "id", Value: id}}
	var req entity.PasscodeRequest
	err = collection.FindOne(m.ctx, filter).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &req, nil
}

func (m *MongoDB) GetRequestByCallsign(callsign string) (*entity.PasscodeRequest, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionRequests)
	filter := bson.D{{Key: "callsign", Value: callsign}}
	var req entity.PasscodeRequest
	err = collection.FindOne(m.ctx, filter).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	return &req, nil
}

// GetRequests lists requests with the given status, oldest first. An empty
// status lists everything.
func (m *MongoDB) GetRequests(status entity.Status) ([]*entity.PasscodeRequest, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionRequests)
	filter := bson.D{}
	if status != "" {
		filter = bson.D{{Key: "status", Value: status}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}})
	cursor, err := collection.Find(m.ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(m.ctx)

	var requests []*entity.PasscodeRequest
	err = cursor.All(m.ctx, &requests)
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (m *MongoDB) SaveRequest(req *entity.PasscodeRequest) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionRequests)
	filter := bson.D{{Key: "id", Value: req.Id}}
	update := bson.D{{Key: "$set", Value: req}}
	_, err = collection.UpdateOne(m.ctx, filter, update)
	return err
}

func (m *MongoDB) GetAdmin(token string) (*entity.Admin, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionAdmins)
	filter := bson.D{{Key: "token", Value: token}}
	var admin entity.Admin
	err = collection.FindOne(m.ctx, filter).Decode(&admin)
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (m *MongoDB) GetTelegramAdmins() ([]*entity.Admin, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionAdmins)
	filter := bson.D{{Key: "telegram_id", Value: bson.D{{Key: "$gt", Value: 0}}}, {Key: "telegram_enabled", Value: true}}
	cursor, err := collection.Find(m.ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(m.ctx)

	var admins []*entity.Admin
	err = cursor.All(m.ctx, &admins)
	if err != nil {
		return nil, err
	}
	return admins, nil
}
