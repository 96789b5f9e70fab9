package credit

// Fields is a validated, category-specific payload. The set of implementations is closed:
// every variant must provide its own scoring rule.
type Fields interface {
	Category() Category
	References() References
	points(rank Rank) float64
}

// References are the organisational ids a payload points at. Zero means absent.
type References struct {
	SemesterID   uint
	FacultyID    uint
	DepartmentID uint
}

// Teaching is a taught course (PERKULIAHAN).
type Teaching struct {
	SemesterID  uint    `form:"semesterId" json:"semesterId" validate:"required"`
	ProdiID     uint    `form:"prodiId" json:"prodiId" validate:"required"`
	FakultasID  uint    `form:"fakultasId" json:"fakultasId" validate:"required"`
	MataKuliah  string  `form:"mataKuliah" json:"mataKuliah" validate:"required"`
	SKS         float64 `form:"sks" json:"sks" validate:"required,finite,gt=0"`
	JumlahKelas int     `form:"jumlahKelas" json:"jumlahKelas" validate:"required,min=1"`
	TotalSKS    float64 `form:"totalSks" json:"totalSks" validate:"finite,gte=0"`
}

func (Teaching) Category() Category { return CategoryTeaching }

func (f Teaching) References() References {
	return References{SemesterID: f.SemesterID, FacultyID: f.FakultasID, DepartmentID: f.ProdiID}
}

func (f Teaching) points(rank Rank) float64 { return TeachingPoints(f.SKS, f.JumlahKelas, rank) }

func (f *Teaching) normalize() {
	if f.TotalSKS == 0 {
		f.TotalSKS = f.SKS * float64(f.JumlahKelas)
	}
}

// SeminarSupervision is supervision of student seminars (BIMBINGAN_SEMINAR).
type SeminarSupervision struct {
	NamaKegiatan string `form:"namaKegiatan" json:"namaKegiatan" validate:"required"`
	SemesterID   uint   `form:"semesterId" json:"semesterId" validate:"required"`
	ProdiID      uint   `form:"prodiId" json:"prodiId" validate:"required"`
	FakultasID   uint   `form:"fakultasId" json:"fakultasId" validate:"required"`
	JumlahMhs    int    `form:"jumlahMhs" json:"jumlahMhs" validate:"required,min=1"`
}

func (SeminarSupervision) Category() Category { return CategorySeminarSupervision }

func (f SeminarSupervision) References() References {
	return References{SemesterID: f.SemesterID, FacultyID: f.FakultasID, DepartmentID: f.ProdiID}
}

func (f SeminarSupervision) points(Rank) float64 { return float64(f.JumlahMhs) }

// FieldworkSupervision is supervision of KKN, PKN or PKL (BIMBINGAN_KKN).
type FieldworkSupervision struct {
	NamaKegiatan  string `form:"namaKegiatan" json:"namaKegiatan" validate:"required"`
	SemesterID    uint   `form:"semesterId" json:"semesterId" validate:"required"`
	JenisKegiatan string `form:"jenisKegiatan" json:"jenisKegiatan" validate:"required,oneof=KKN PKN PKL"`
	ProdiID       uint   `form:"prodiId" json:"prodiId" validate:"required"`
	FakultasID    uint   `form:"fakultasId" json:"fakultasId" validate:"required"`
	JumlahMhs     int    `form:"jumlahMhs" json:"jumlahMhs" validate:"required,min=1"`
}

func (FieldworkSupervision) Category() Category { return CategoryFieldworkSupervision }

func (f FieldworkSupervision) References() References {
	return References{SemesterID: f.SemesterID, FacultyID: f.FakultasID, DepartmentID: f.ProdiID}
}

func (f FieldworkSupervision) points(Rank) float64 { return float64(f.JumlahMhs) }

// ThesisSupervision is supervision of a final project (BIMBINGAN_TUGAS_AKHIR).
type ThesisSupervision struct {
	NamaKegiatan    string `form:"namaKegiatan" json:"namaKegiatan" validate:"required"`
	JenisTugasAkhir string `form:"jenisTugasAkhir" json:"jenisTugasAkhir" validate:"required,oneof='Disertasi' 'Tesis' 'Skripsi' 'Laporan Studi Akhir'"`
	SemesterID      uint   `form:"semesterId" json:"semesterId" validate:"required"`
	Peran           string `form:"peran" json:"peran" validate:"required,oneof='Pembimbing Utama' 'Pembimbing Pendamping'"`
	JumlahMhs       int    `form:"jumlahMhs" json:"jumlahMhs" validate:"required,min=1"`
}

func (ThesisSupervision) Category() Category { return CategoryThesisSupervision }

func (f ThesisSupervision) References() References { return References{SemesterID: f.SemesterID} }

func (f ThesisSupervision) points(Rank) float64 {
	if f.Peran == "Pembimbing Utama" {
		return float64(f.JumlahMhs)
	}
	return float64(f.JumlahMhs) * 0.5
}

// FinalExamExaminer is examining final exams (PENGUJI_UJIAN_AKHIR).
type FinalExamExaminer struct {
	NamaKegiatan string `form:"namaKegiatan" json:"namaKegiatan" validate:"required"`
	Peran        string `form:"peran" json:"peran" validate:"required,oneof='Ketua Penguji' 'Anggota Penguji'"`
	SemesterID   uint   `form:"semesterId" json:"semesterId" validate:"required"`
	JumlahMhs    int    `form:"jumlahMhs" json:"jumlahMhs" validate:"required,min=1"`
}

func (FinalExamExaminer) Category() Category { return CategoryFinalExamExaminer }

func (f FinalExamExaminer) References() References { return References{SemesterID: f.SemesterID} }

func (f FinalExamExaminer) points(Rank) float64 {
	if f.Peran == "Ketua Penguji" {
		return float64(f.JumlahMhs)
	}
	return float64(f.JumlahMhs) * 0.5
}

// StudentMentoring is mentoring a student activity (PEMBINA_KEGIATAN_MHS).
type StudentMentoring struct {
	NamaKegiatan string `form:"namaKegiatan" json:"namaKegiatan" validate:"required"`
	SemesterID   uint   `form:"semesterId" json:"semesterId" validate:"required"`
	JumlahMhs    int    `form:"jumlahMhs" json:"jumlahMhs" validate:"gte=0"`
	LuaranProduk string `form:"luaranProduk" json:"luaranProduk" validate:"required"`
}

func (StudentMentoring) Category() Category { return CategoryStudentMentoring }

func (f StudentMentoring) References() References { return References{SemesterID: f.SemesterID} }

func (StudentMentoring) points(Rank) float64 { return 2 }

// ProgramDevelopment is developing a course program (PENGEMBANGAN_PROGRAM).
type ProgramDevelopment struct {
	NamaKegiatan string `form:"namaKegiatan" json:"namaKegiatan" validate:"required"`
	SemesterID   uint   `form:"semesterId" json:"semesterId" validate:"required"`
	NamaProgram  string `form:"namaProgram" json:"namaProgram" validate:"required"`
	MataKuliah   string `form:"mataKuliah" json:"mataKuliah" validate:"required"`
	ProdiID      uint   `form:"prodiId" json:"prodiId" validate:"required"`
	FakultasID   uint   `form:"fakultasId" json:"fakultasId" validate:"required"`
}

func (ProgramDevelopment) Category() Category { return CategoryProgramDevelopment }

func (f ProgramDevelopment) References() References {
	return References{SemesterID: f.SemesterID, FacultyID: f.FakultasID, DepartmentID: f.ProdiID}
}

func (ProgramDevelopment) points(Rank) float64 { return 2 }

// ProductTextbook is the jenisProduk value that selects the Textbook branch.
const ProductTextbook = "Buku Ajar"

// Textbook is the "Buku Ajar" branch of BAHAN_PENGAJARAN.
type Textbook struct {
	JenisProduk   string `form:"jenisProduk" json:"jenisProduk" validate:"required,eq=Buku Ajar"`
	SemesterID    uint   `form:"semesterId" json:"semesterId" validate:"required"`
	Judul         string `form:"judul" json:"judul" validate:"required"`
	TglTerbit     string `form:"tglTerbit" json:"tglTerbit" validate:"required,isodate"`
	Penerbit      string `form:"penerbit" json:"penerbit" validate:"required"`
	JumlahHalaman int    `form:"jumlahHalaman" json:"jumlahHalaman" validate:"required,min=1"`
	ISBN          string `form:"isbn" json:"isbn,omitempty"`
}

func (Textbook) Category() Category { return CategoryTeachingMaterial }

func (f Textbook) References() References { return References{SemesterID: f.SemesterID} }

func (Textbook) points(Rank) float64 { return 20 }

// TeachingMaterial is every other product type of BAHAN_PENGAJARAN.
type TeachingMaterial struct {
	JenisProduk   string `form:"jenisProduk" json:"jenisProduk" validate:"required,oneof='Diktat' 'Modul' 'Petunjuk praktikum' 'Model' 'Alat bantu' 'Audio visual' 'Naskah tutorial' 'Job sheet praktikum'"`
	SemesterID    uint   `form:"semesterId" json:"semesterId" validate:"required"`
	Judul         string `form:"judul" json:"judul" validate:"required"`
	JumlahHalaman int    `form:"jumlahHalaman" json:"jumlahHalaman" validate:"required,min=1"`
	ProdiID       uint   `form:"prodiId" json:"prodiId" validate:"required"`
	FakultasID    uint   `form:"fakultasId" json:"fakultasId" validate:"required"`
	MataKuliah    string `form:"mataKuliah" json:"mataKuliah" validate:"required"`
}

func (TeachingMaterial) Category() Category { return CategoryTeachingMaterial }

func (f TeachingMaterial) References() References {
	return References{SemesterID: f.SemesterID, FacultyID: f.FakultasID, DepartmentID: f.ProdiID}
}

func (TeachingMaterial) points(Rank) float64 { return 5 }

// ScholarlyOration is delivering a scientific oration (ORASI_ILMIAH).
type ScholarlyOration struct {
	SemesterID    uint   `form:"semesterId" json:"semesterId" validate:"required"`
	JudulMakalah  string `form:"judulMakalah" json:"judulMakalah" validate:"required"`
	NamaPertemuan string `form:"namaPertemuan" json:"namaPertemuan" validate:"required"`
	Tingkat       string `form:"tingkat" json:"tingkat" validate:"required,oneof=Lokal Daerah Nasional Internasional"`
	Penyelenggara string `form:"penyelenggara" json:"penyelenggara" validate:"required"`
	Tanggal       string `form:"tanggal" json:"tanggal" validate:"required,isodate"`
}

func (ScholarlyOration) Category() Category { return CategoryScholarlyOration }

func (f ScholarlyOration) References() References { return References{SemesterID: f.SemesterID} }

func (ScholarlyOration) points(Rank) float64 { return 5 }

// StructuralPosition is holding a structural office (JABATAN_STRUKTURAL).
type StructuralPosition struct {
	SemesterID      uint   `form:"semesterId" json:"semesterId" validate:"required"`
	NamaJabatan     string `form:"namaJabatan" json:"namaJabatan" validate:"required,oneof='Rektor' 'Wakil Rektor' 'Ketua Sekolah' 'Pembantu Ketua Sekolah' 'Direktur Akademi' 'Pembantu Direktur' 'Sekretaris Jurusan'"`
	ProdiID         uint   `form:"prodiId" json:"prodiId" validate:"required"`
	FakultasID      uint   `form:"fakultasId" json:"fakultasId" validate:"required"`
	PerguruanTinggi string `form:"perguruanTinggi" json:"perguruanTinggi" validate:"required"`
}

func (StructuralPosition) Category() Category { return CategoryStructuralPosition }

func (f StructuralPosition) References() References {
	return References{SemesterID: f.SemesterID, FacultyID: f.FakultasID, DepartmentID: f.ProdiID}
}

func (f StructuralPosition) points(Rank) float64 { return StructuralPositionPoints(f.NamaJabatan) }

// LecturerMentoring is guiding a junior lecturer (BIMBING_DOSEN).
type LecturerMentoring struct {
	SemesterID        uint   `form:"semesterId" json:"semesterId" validate:"required"`
	ProdiID           uint   `form:"prodiId" json:"prodiId" validate:"required"`
	TglMulai          string `form:"tglMulai" json:"tglMulai" validate:"required,isodate"`
	TglSelesai        string `form:"tglSelesai" json:"tglSelesai" validate:"required,isodate"`
	JenisBimbingan    string `form:"jenisBimbingan" json:"jenisBimbingan" validate:"required,oneof=Reguler Pencangkokan"`
	JabatanFungsional string `form:"jabatanFungsional" json:"jabatanFungsional" validate:"required,rank"`
	DosenPembimbing   string `form:"dosenPembimbing" json:"dosenPembimbing" validate:"required"`
	BidangKeahlian    string `form:"bidangKeahlian" json:"bidangKeahlian" validate:"required"`
	Deskripsi         string `form:"deskripsi" json:"deskripsi"`
}

func (LecturerMentoring) Category() Category { return CategoryLecturerMentoring }

func (f LecturerMentoring) References() References {
	return References{SemesterID: f.SemesterID, DepartmentID: f.ProdiID}
}

func (f LecturerMentoring) points(Rank) float64 {
	if f.JenisBimbingan == "Pencangkokan" {
		return 2
	}
	return 1
}

func (f *LecturerMentoring) normalize() {
	if rank, ok := ParseRank(f.JabatanFungsional); ok {
		f.JabatanFungsional = string(rank)
	}
}

// Datasering is a datasering or pencangkokan assignment at another institution (DATA_SERING).
type Datasering struct {
	SemesterID      uint   `form:"semesterId" json:"semesterId" validate:"required"`
	JenisKegiatan   string `form:"jenisKegiatan" json:"jenisKegiatan" validate:"required,oneof=Datasering Pencangkokan"`
	PerguruanTinggi string `form:"perguruanTinggi" json:"perguruanTinggi" validate:"required"`
	TglMulai        string `form:"tglMulai" json:"tglMulai" validate:"required,isodate"`
	TglSelesai      string `form:"tglSelesai" json:"tglSelesai" validate:"required,isodate"`
	BidangKeahlian  string `form:"bidangKeahlian" json:"bidangKeahlian" validate:"required"`
}

func (Datasering) Category() Category { return CategoryDatasering }

func (f Datasering) References() References { return References{SemesterID: f.SemesterID} }

func (f Datasering) points(Rank) float64 {
	if f.JenisKegiatan == "Datasering" {
		return 5
	}
	return 4
}

// SelfDevelopment is a training or course attended by the lecturer (PENGEMBANGAN_DIRI).
type SelfDevelopment struct {
	SemesterID     uint    `form:"semesterId" json:"semesterId" validate:"required"`
	ProdiID        uint    `form:"prodiId" json:"prodiId" validate:"required"`
	FakultasID     uint    `form:"fakultasId" json:"fakultasId" validate:"required"`
	NamaKegiatan   string  `form:"namaKegiatan" json:"namaKegiatan" validate:"required"`
	DetailKegiatan string  `form:"detailKegiatan" json:"detailKegiatan"`
	TglMulai       string  `form:"tglMulai" json:"tglMulai" validate:"required,isodate"`
	TglSelesai     string  `form:"tglSelesai" json:"tglSelesai" validate:"required,isodate"`
	Penyelenggara  string  `form:"penyelenggara" json:"penyelenggara" validate:"required"`
	Tempat         string  `form:"tempat" json:"tempat" validate:"required"`
	LamaJam        float64 `form:"lamaJam" json:"lamaJam" validate:"required,finite,gt=0"`
}

func (SelfDevelopment) Category() Category { return CategorySelfDevelopment }

func (f SelfDevelopment) References() References {
	return References{SemesterID: f.SemesterID, FacultyID: f.FakultasID, DepartmentID: f.ProdiID}
}

func (f SelfDevelopment) points(Rank) float64 { return SelfDevelopmentPoints(f.LamaJam) }
