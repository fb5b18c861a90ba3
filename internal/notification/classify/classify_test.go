package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"concrnt-notifier/internal/concrnt"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   Kind
	}{
		{"reply", concrnt.SchemaReplyAssociation, KindReply},
		{"reroute", concrnt.SchemaRerouteAssociation, KindReroute},
		{"like", concrnt.SchemaLikeAssociation, KindLike},
		{"reaction", concrnt.SchemaReactionAssociation, KindReaction},
		{"mention", concrnt.SchemaMentionAssociation, KindMention},
		{"read access request", concrnt.SchemaReadAccessRequestAssociation, KindReadAccess},
		{"unknown schema", "https://schema.concrnt.world/a/somethingelse.json", KindIndividual},
		{"empty schema", "", KindIndividual},
		{"garbage", "not even a uri", KindIndividual},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.schema))
		})
	}
}

func TestClassifyTotality(t *testing.T) {
	known := map[Kind]bool{
		KindReply: true, KindReroute: true, KindLike: true,
		KindReaction: true, KindMention: true, KindReadAccess: true,
		KindIndividual: true,
	}

	inputs := []string{
		concrnt.SchemaReplyAssociation,
		concrnt.SchemaLikeAssociation,
		"", "x", "https://example.com/a/unknown.json",
	}
	for _, schema := range inputs {
		assert.True(t, known[Classify(schema)], "schema %q must map to a defined kind", schema)
	}
}

func TestSummarisable(t *testing.T) {
	assert.True(t, Summarisable(KindLike))
	assert.True(t, Summarisable(KindReaction))
	assert.False(t, Summarisable(KindReply))
	assert.False(t, Summarisable(KindReroute))
	assert.False(t, Summarisable(KindMention))
	assert.False(t, Summarisable(KindReadAccess))
	assert.False(t, Summarisable(KindIndividual))
}
