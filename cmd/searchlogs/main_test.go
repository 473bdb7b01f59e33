package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/stratalog/internal/app/system/cursor"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func raw(t *testing.T, id, msg string) bson.Raw {
	t.Helper()
	b, err := bson.Marshal(bson.D{{Key: "_id", Value: id}, {Key: "userMessage", Value: msg}})
	require.NoError(t, err)
	return b
}

func pages(t *testing.T) cursor.PageFunc[bson.Raw] {
	book := map[string]cursor.Page[bson.Raw]{
		"":  {Docs: []bson.Raw{raw(t, "d", "crash on save"), raw(t, "c", "hang")}, Bookmark: "c"},
		"c": {Docs: []bson.Raw{raw(t, "b", "save then crash"), raw(t, "a", "crash")}, Bookmark: "a"},
		"a": {Bookmark: "a"},
	}
	return func(ctx context.Context, bookmark string) (cursor.Page[bson.Raw], error) {
		return book[bookmark], nil
	}
}

func TestScan(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, scan(context.Background(), pages(t), []string{"crash", "save"}, &out))

	want := "Search items found in d\n" +
		"Searched d c\n" +
		"Search items found in b\n" +
		"Searched b a\n" +
		"done\n"
	assert.Equal(t, want, out.String())
}

func TestScan_EmptyCollection(t *testing.T) {
	var out bytes.Buffer
	empty := func(ctx context.Context, bookmark string) (cursor.Page[bson.Raw], error) {
		return cursor.Page[bson.Raw]{Bookmark: bookmark}, nil
	}
	require.NoError(t, scan(context.Background(), empty, []string{"crash"}, &out))
	assert.Equal(t, "done\n", out.String())
}

func TestScan_StoreError(t *testing.T) {
	var out bytes.Buffer
	boom := errors.New("connection reset")
	fetch := func(ctx context.Context, bookmark string) (cursor.Page[bson.Raw], error) {
		return cursor.Page[bson.Raw]{}, boom
	}
	err := scan(context.Background(), fetch, []string{"x"}, &out)
	require.ErrorIs(t, err, boom)
	assert.NotContains(t, out.String(), "done")
}

func TestMissingSearchTerm(t *testing.T) {
	var out bytes.Buffer
	open := func(ctx context.Context, uri, database string) (*mongo.Database, func(), error) {
		t.Fatal("store opened without a search term")
		return nil, nil, nil
	}
	cmd := newRootCmd(viper.New(), open, &out)
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.ErrorIs(t, err, errMissingTerm)
	assert.Equal(t, "Missing search term", err.Error())
	assert.Empty(t, out.String())
}

func TestConfigFromFlagsAndEnv(t *testing.T) {
	t.Setenv("STRATALOG_MONGO_DATABASE", "fromenv")

	var gotURI, gotDB string
	stop := errors.New("stop")
	open := func(ctx context.Context, uri, database string) (*mongo.Database, func(), error) {
		gotURI, gotDB = uri, database
		return nil, nil, stop
	}
	cmd := newRootCmd(viper.New(), open, &bytes.Buffer{})
	cmd.SetArgs([]string{"--mongo-uri", "mongodb://db.example:27017", "crash"})

	require.ErrorIs(t, cmd.Execute(), stop)
	assert.Equal(t, "mongodb://db.example:27017", gotURI)
	assert.Equal(t, "fromenv", gotDB)
}
