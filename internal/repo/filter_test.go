package repo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterCompile(t *testing.T) {
	tests := []struct {
		name      string
		filter    *Filter
		startArg  int
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "empty filter",
			filter:    NewFilter(),
			startArg:  1,
			wantWhere: "TRUE",
			wantArgs:  nil,
		},
		{
			name:      "nil filter",
			filter:    nil,
			startArg:  1,
			wantWhere: "TRUE",
			wantArgs:  nil,
		},
		{
			name:      "single equality",
			filter:    NewFilter().Equals("user_id", "u1"),
			startArg:  1,
			wantWhere: "user_id = $1",
			wantArgs:  []interface{}{"u1"},
		},
		{
			name:      "single value any-of degenerates to equality",
			filter:    NewFilter().Equals("user_id", "u1").AnyOf("pdf_id", "p1"),
			startArg:  1,
			wantWhere: "user_id = $1 AND pdf_id = $2",
			wantArgs:  []interface{}{"u1", "p1"},
		},
		{
			name:      "multi value any-of compiles to IN",
			filter:    NewFilter().Equals("user_id", "u1").AnyOf("pdf_id", "p1", "p2", "p3"),
			startArg:  1,
			wantWhere: "user_id = $1 AND pdf_id IN ($2, $3, $4)",
			wantArgs:  []interface{}{"u1", "p1", "p2", "p3"},
		},
		{
			name:      "empty any-of is ignored",
			filter:    NewFilter().Equals("user_id", "u1").AnyOf("pdf_id"),
			startArg:  1,
			wantWhere: "user_id = $1",
			wantArgs:  []interface{}{"u1"},
		},
		{
			name:      "placeholder numbering honors start arg",
			filter:    NewFilter().Equals("user_id", "u1").AnyOf("pdf_id", "p1", "p2"),
			startArg:  2,
			wantWhere: "user_id = $2 AND pdf_id IN ($3, $4)",
			wantArgs:  []interface{}{"u1", "p1", "p2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := tt.filter.Compile(tt.startArg)
			require.Equal(t, tt.wantWhere, where)
			require.Equal(t, tt.wantArgs, args)
		})
	}
}
