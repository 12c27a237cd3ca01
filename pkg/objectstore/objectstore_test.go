package objectstore

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKey(t *testing.T) {
	k := ObjectKey("/carousel/", "Banner.PNG")
	assert.True(t, strings.HasPrefix(k, "carousel/"))
	assert.True(t, strings.HasSuffix(k, ".png"))
	assert.NotEqual(t, k, ObjectKey("carousel", "Banner.PNG"))
}

func TestMemory_PutRemove(t *testing.T) {
	ctx := context.Background()
	m := NewMemory("http://cdn.local/")

	obj, err := m.Put(ctx, "carousel", "a.jpg", "image/jpeg", strings.NewReader("img"), 3)
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.local/"+obj.Key, obj.URL)
	assert.True(t, m.Has(obj.Key))

	require.NoError(t, m.Remove(ctx, obj.Key))
	assert.False(t, m.Has(obj.Key))
}

func TestPublicReadPolicy(t *testing.T) {
	type statement struct {
		Effect    string
		Principal struct{ AWS []string }
		Action    []string
		Resource  []string
	}
	parse := func(t *testing.T, raw string) statement {
		t.Helper()
		var doc struct {
			Version   string
			Statement []statement
		}
		require.NoError(t, json.Unmarshal([]byte(raw), &doc))
		assert.Equal(t, "2012-10-17", doc.Version)
		require.Len(t, doc.Statement, 1)
		return doc.Statement[0]
	}

	st := parse(t, PublicReadPolicy("loja", PrefixCarousel, "/"+PrefixProducts+"/"))
	assert.Equal(t, "Allow", st.Effect)
	assert.Equal(t, []string{"*"}, st.Principal.AWS)
	assert.Equal(t, []string{"s3:GetObject"}, st.Action)
	assert.Equal(t, []string{"arn:aws:s3:::loja/carousel/*", "arn:aws:s3:::loja/products/*"}, st.Resource)

	st = parse(t, PublicReadPolicy("loja"))
	assert.Equal(t, []string{"arn:aws:s3:::loja/*"}, st.Resource)
}
