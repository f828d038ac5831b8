package pipeline_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/pipeline"
	"github.com/couchcryptid/wofost-input-service/internal/soil"
	"github.com/couchcryptid/wofost-input-service/internal/weather"
)

const runHeader = "parcel_id,grid_ref,weather,soil,start,end,crop,variety,campaign_year,sowing_date\n"

func TestCSVSourceReadsRequests(t *testing.T) {
	data := runHeader +
		"21616,,NASA,SoilGrids,2020-03-01,2020-09-30,wheat,Winter_wheat_106,2020,2020-03-15\n" +
		",SX92289293,Chess,HWSD,2021-04-01,2021-10-31,potato,Fontane,2021,2021-04-20\n"

	source, err := pipeline.NewCSVSource(strings.NewReader(data))
	require.NoError(t, err)

	ctx := context.Background()

	first, err := source.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 21616, first.ParcelID)
	assert.Empty(t, first.GridRef)
	assert.Equal(t, weather.SelectorNASA, first.Weather)
	assert.Equal(t, soil.SelectorSoilGrids, first.Soil)
	assert.Equal(t, time.Date(2020, time.March, 1, 0, 0, 0, 0, time.UTC), first.Period.Start)
	assert.Equal(t, "wheat", first.Calendar.Crop)
	assert.Equal(t, "Winter_wheat_106", first.Calendar.Variety)
	assert.Equal(t, 2020, first.Calendar.CampaignYear)
	assert.Equal(t, time.Date(2020, time.March, 15, 0, 0, 0, 0, time.UTC), first.Calendar.SowingDate)

	second, err := source.Next(ctx)
	require.NoError(t, err)
	assert.Zero(t, second.ParcelID)
	assert.Equal(t, "SX92289293", second.GridRef)
	assert.Equal(t, weather.SelectorChess, second.Weather)
	assert.Equal(t, soil.SelectorHWSD, second.Soil)

	_, err = source.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestCSVSourceMissingColumn(t *testing.T) {
	data := "parcel_id,grid_ref,weather,start,end,crop,variety,campaign_year,sowing_date\n"

	_, err := pipeline.NewCSVSource(strings.NewReader(data))
	require.ErrorIs(t, err, domain.ErrSchema)
	assert.Contains(t, err.Error(), "soil")
}

func TestCSVSourceEmptyFile(t *testing.T) {
	_, err := pipeline.NewCSVSource(strings.NewReader(""))
	require.ErrorIs(t, err, domain.ErrSchema)
}

func TestCSVSourceMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{
			name: "no identity",
			row:  ",,NASA,SoilGrids,2020-03-01,2020-09-30,wheat,,2020,2020-03-15",
			want: "neither parcel_id nor grid_ref",
		},
		{
			name: "bad parcel id",
			row:  "abc,,NASA,SoilGrids,2020-03-01,2020-09-30,wheat,,2020,2020-03-15",
			want: "parcel_id",
		},
		{
			name: "unknown weather selector",
			row:  "21616,,Sunshine,SoilGrids,2020-03-01,2020-09-30,wheat,,2020,2020-03-15",
			want: "Sunshine",
		},
		{
			name: "unknown soil selector",
			row:  "21616,,NASA,Terrarium,2020-03-01,2020-09-30,wheat,,2020,2020-03-15",
			want: "Terrarium",
		},
		{
			name: "bad start date",
			row:  "21616,,NASA,SoilGrids,01/03/2020,2020-09-30,wheat,,2020,2020-03-15",
			want: "bad start",
		},
		{
			name: "empty crop",
			row:  "21616,,NASA,SoilGrids,2020-03-01,2020-09-30,,,2020,2020-03-15",
			want: "crop is empty",
		},
		{
			name: "bad campaign year",
			row:  "21616,,NASA,SoilGrids,2020-03-01,2020-09-30,wheat,,twenty,2020-03-15",
			want: "campaign_year",
		},
		{
			name: "bad sowing date",
			row:  "21616,,NASA,SoilGrids,2020-03-01,2020-09-30,wheat,,2020,someday",
			want: "sowing_date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := pipeline.NewCSVSource(strings.NewReader(runHeader + tt.row + "\n"))
			require.NoError(t, err)

			_, err = source.Next(context.Background())
			require.ErrorIs(t, err, domain.ErrMalformedRow)
			assert.Contains(t, err.Error(), "line 2")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
