package services

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"psnhub/mapping"
	"psnhub/models"
	"psnhub/storage"
	"psnhub/utils"
)

var testRegistry = []mapping.DeveloperMap{
	{
		Key:       "тест",
		Slug:      "test",
		Developer: "Тест Девелопмент",
		Deal:      models.DealAuto,
		Columns: map[mapping.Field]string{
			mapping.FieldID:         "ID",
			mapping.FieldArea:       "Площадь",
			mapping.FieldType:       "Тип",
			mapping.FieldDealCol:    "Сделка",
			mapping.FieldPrice:      "Цена",
			mapping.FieldPriceRent:  "Аренда_мес",
			mapping.FieldMetro:      "Метро",
			mapping.FieldMetro2:     "Метро2",
			mapping.FieldURL3D:      "3D",
			mapping.FieldCity:       "Город",
			mapping.FieldDelivery:   "Срок",
			mapping.FieldFloor:      "Этаж",
			mapping.FieldCommission: "Комиссия",
		},
	},
	{
		Key:       "продажа",
		Slug:      "sales",
		Developer: "Продавец",
		Deal:      models.DealSale,
		Columns: map[mapping.Field]string{
			mapping.FieldID:    "ID",
			mapping.FieldArea:  "Площадь",
			mapping.FieldPrice: "Цена",
			mapping.FieldJK:    "ЖК",
		},
	},
}

const mixedCSV = "ID;Площадь;Тип;Сделка;Цена;Аренда_мес;Метро;Метро2;3D;Город;Срок;Этаж;Комиссия\n" +
	"A-1;100,3 м²;Офис премиум;sale;41 203 240 руб.;;Тверская;;https://tour.example/1;moscow;до 28 апреля 2028;3;3%\n" +
	"A-1;50;psn;Аренда;;150 000;;;нет;Москва;;;\n" +
	"A-3;0;psn;sale;100;;;;;;;;\n" +
	"A-4;abc;psn;sale;100;;;;;;;;\n" +
	"A-5;-5;psn;sale;100;;;;;;;;\n" +
	";;;;;;;;;;;;\n"

type recordingSink struct {
	catalogs []*models.Catalog
	err      error
}

func (s *recordingSink) Write(c *models.Catalog) error {
	s.catalogs = append(s.catalogs, c)
	return s.err
}

func (s *recordingSink) Close() error { return nil }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestConverter(t *testing.T) (*Converter, string) {
	t.Helper()
	out := filepath.Join(t.TempDir(), "developers")
	c := NewConverter(utils.NewDiscardLogger(), testRegistry, storage.NewCatalogStore(out))
	c.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return c, out
}

func TestConvertFileRows(t *testing.T) {
	c, _ := newTestConverter(t)
	path := filepath.Join(t.TempDir(), "тест.csv")
	writeFile(t, path, mixedCSV)

	res, err := c.ConvertFile(path, testRegistry[0])
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(res.Units) != 2 {
		t.Fatalf("units: got %d, want 2", len(res.Units))
	}
	if res.Skipped != 4 {
		t.Errorf("skipped: got %d, want 4", res.Skipped)
	}
	if len(res.Missing) != 0 {
		t.Errorf("no columns should be missing, got %v", res.Missing)
	}

	floor := 3
	want := &models.Unit{
		ID:         "test-A-1",
		Developer:  "Тест Девелопмент",
		Type:       models.CategoryOffice,
		Deal:       models.DealSale,
		Price:      41203240,
		Area:       100.3,
		Floor:      &floor,
		Delivery:   "2028-Q2",
		City:       models.Moscow,
		Metro:      []string{"Тверская"},
		Has3D:      true,
		URL3D:      "https://tour.example/1",
		Commission: 3,
	}
	if got := res.Units[0]; !reflect.DeepEqual(got, want) {
		t.Errorf("first unit:\n got  %+v\n want %+v", got, want)
	}

	rent := res.Units[1]
	if rent.ID != "test-A-1-3" {
		t.Errorf("duplicate id should get the row suffix, got %q", rent.ID)
	}
	if rent.Deal != models.DealRent || rent.Price != 150000 {
		t.Errorf("rent unit: deal %q price %d, want rent 150000", rent.Deal, rent.Price)
	}
	if rent.Has3D || rent.URL3D != "" {
		t.Errorf("non-URL 3D cell should be dropped, got %v %q", rent.Has3D, rent.URL3D)
	}
	if rent.Floor != nil {
		t.Errorf("empty floor should be absent, got %d", *rent.Floor)
	}
	if rent.Metro == nil || len(rent.Metro) != 0 {
		t.Errorf("metro should be an empty list, got %#v", rent.Metro)
	}
}

func TestConvertPathWritesOneCatalogPerDeal(t *testing.T) {
	c, out := newTestConverter(t)
	sink := &recordingSink{}
	c.AddSink(sink)

	path := filepath.Join(t.TempDir(), "ТЕСТ_остатки.csv")
	writeFile(t, path, mixedCSV)

	res, err := c.ConvertPath(path)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	wantPaths := []string{
		filepath.Join(out, "test", "test_sale.json"),
		filepath.Join(out, "test", "test_rent.json"),
	}
	if !reflect.DeepEqual(res.Written, wantPaths) {
		t.Fatalf("written: got %v, want %v", res.Written, wantPaths)
	}

	sale, err := storage.ReadCatalog(wantPaths[0])
	if err != nil {
		t.Fatalf("read sale: %v", err)
	}
	if sale.Deal != models.DealSale || sale.Slug != "test" || sale.Updated != "2026-03-01" {
		t.Errorf("sale header: %+v", sale)
	}
	if sale.Developer != "Тест Девелопмент" {
		t.Errorf("developer: got %q", sale.Developer)
	}
	if len(sale.Units) != 1 || sale.Units[0].ID != "test-A-1" {
		t.Errorf("sale units: %+v", sale.Units)
	}

	rent, err := storage.ReadCatalog(wantPaths[1])
	if err != nil {
		t.Fatalf("read rent: %v", err)
	}
	if len(rent.Units) != 1 || rent.Units[0].Deal != models.DealRent {
		t.Errorf("rent units: %+v", rent.Units)
	}

	if len(sink.catalogs) != 2 {
		t.Errorf("sink should see both catalogs, got %d", len(sink.catalogs))
	}
}

func TestConvertPathMissingColumns(t *testing.T) {
	c, out := newTestConverter(t)
	path := filepath.Join(t.TempDir(), "продажа.csv")
	writeFile(t, path, "ID,Площадь,Цена\nS-1,42,1000000\n")

	res, err := c.ConvertPath(path)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !reflect.DeepEqual(res.Missing, []mapping.Field{mapping.FieldJK}) {
		t.Errorf("missing: got %v, want [jk]", res.Missing)
	}
	if res.Units[0].JK != "" {
		t.Errorf("missing column should read empty, got %q", res.Units[0].JK)
	}
	if _, err := os.Stat(filepath.Join(out, "sales", "sales_sale.json")); err != nil {
		t.Errorf("sale catalog not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "sales", "sales_rent.json")); !os.IsNotExist(err) {
		t.Errorf("rent catalog should not exist, stat err %v", err)
	}
}

func TestConvertPathErrors(t *testing.T) {
	c, out := newTestConverter(t)
	dir := t.TempDir()

	unmapped := filepath.Join(dir, "неизвестный.csv")
	writeFile(t, unmapped, "ID,Площадь\n1,10\n")
	if _, err := c.ConvertPath(unmapped); !errors.Is(err, ErrUnmappedFile) {
		t.Errorf("unmapped file: got %v, want ErrUnmappedFile", err)
	}

	empty := filepath.Join(dir, "тест_пусто.csv")
	writeFile(t, empty, "ID,Площадь\n1,0\n2,\n")
	res, err := c.ConvertPath(empty)
	if !errors.Is(err, ErrEmptyOutput) {
		t.Errorf("empty file: got %v, want ErrEmptyOutput", err)
	}
	if res == nil || res.Skipped != 2 {
		t.Errorf("empty file result should report skipped rows, got %+v", res)
	}
	if _, err := os.Stat(filepath.Join(out, "test")); !os.IsNotExist(err) {
		t.Errorf("nothing should be written for an empty file, stat err %v", err)
	}

	broken := filepath.Join(dir, "тест.xlsx")
	writeFile(t, broken, "not a zip archive")
	if _, err := c.ConvertPath(broken); err == nil {
		t.Error("corrupt xlsx should fail")
	}
}

func TestConvertFailingSinkDoesNotFailFile(t *testing.T) {
	c, _ := newTestConverter(t)
	c.AddSink(&recordingSink{err: errors.New("db down")})

	path := filepath.Join(t.TempDir(), "продажа.csv")
	writeFile(t, path, "ID,Площадь,Цена\nS-1,42,1000000\n")

	if _, err := c.ConvertPath(path); err != nil {
		t.Fatalf("sink failure should only warn, got %v", err)
	}
}

func TestConvertXLSX(t *testing.T) {
	c, _ := newTestConverter(t)
	path := filepath.Join(t.TempDir(), "продажа.xlsx")

	f := excelize.NewFile()
	rows := [][]any{
		{"ID", "ЖК", "Площадь", "Цена"},
		{"S-1", "Лесной", 100.3, 41203240},
		{nil, "Лесной", "55,5", "12 000 000"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Close()

	res, err := c.ConvertFile(path, testRegistry[1])
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(res.Units) != 2 {
		t.Fatalf("units: got %d, want 2", len(res.Units))
	}
	if u := res.Units[0]; u.Price != 41203240 || u.Area != 100.3 || u.JK != "Лесной" {
		t.Errorf("first unit: %+v", u)
	}
	if u := res.Units[1]; u.ID != "sales-3" || u.Area != 55.5 || u.Price != 12000000 {
		t.Errorf("row without id should fall back to the row number: %+v", u)
	}
}

func TestConverterRun(t *testing.T) {
	c, out := newTestConverter(t)
	src := t.TempDir()

	writeFile(t, filepath.Join(src, "тест.csv"), mixedCSV)
	writeFile(t, filepath.Join(src, "продажа.csv"), "ID,Площадь,Цена\nS-1,42,1000000\n")
	writeFile(t, filepath.Join(src, "другой.csv"), "ID,Площадь\n1,10\n")
	writeFile(t, filepath.Join(src, "~$тест.xlsx"), "lock")
	writeFile(t, filepath.Join(src, "readme.txt"), "ignored")

	s := c.Run(src)
	if s.Files != 3 || s.Succeeded != 2 || s.Failed != 1 {
		t.Errorf("summary: %+v", s)
	}
	if s.Units != 3 {
		t.Errorf("units: got %d, want 3", s.Units)
	}
	if len(s.Written) != 3 {
		t.Errorf("written: got %v", s.Written)
	}
	for _, p := range s.Written {
		if !strings.HasPrefix(p, out) {
			t.Errorf("catalog %s written outside %s", p, out)
		}
	}
}

func TestConverterRunCreatesMissingSourceDir(t *testing.T) {
	c, _ := newTestConverter(t)
	src := filepath.Join(t.TempDir(), "source_excel")

	s := c.Run(src)
	if s.Files != 0 {
		t.Errorf("files: got %d, want 0", s.Files)
	}
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		t.Errorf("source dir should be created, stat err %v", err)
	}
}

func TestConvertFileCollisionSuffixStaysUnique(t *testing.T) {
	c, _ := newTestConverter(t)
	path := filepath.Join(t.TempDir(), "тест.csv")
	writeFile(t, path, "ID,Площадь\nX-4,10\nX,10\nX,10\nX,10\n")

	res, err := c.ConvertFile(path, testRegistry[0])
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	want := []string{"test-X-4", "test-X", "test-X-4-2", "test-X-5"}
	var got []string
	for _, u := range res.Units {
		got = append(got, u.ID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ids: got %v, want %v", got, want)
	}
}

func TestConvertXLSXDateDelivery(t *testing.T) {
	c, _ := newTestConverter(t)
	path := filepath.Join(t.TempDir(), "тест.xlsx")

	f := excelize.NewFile()
	rows := [][]any{
		{"ID", "Площадь", "Срок"},
		{"D-1", 10, time.Date(2028, 4, 28, 0, 0, 0, 0, time.UTC)},
		{"D-2", 12, "до 28 апреля 2028"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	f.Close()

	res, err := c.ConvertFile(path, testRegistry[0])
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if len(res.Units) != 2 {
		t.Fatalf("units: got %d, want 2", len(res.Units))
	}
	if got := res.Units[0].Delivery; got != "2028" {
		t.Errorf("date cell delivery: got %q, want 2028", got)
	}
	if got := res.Units[0].Area; got != 10 {
		t.Errorf("plain number should stay a number, area %v", got)
	}
	if got := res.Units[1].Delivery; got != "2028-Q2" {
		t.Errorf("text delivery: got %q, want 2028-Q2", got)
	}
}
