package model

// Collection is one self-contained ranking job: a spec, its outlines and its PDFs
type Collection struct {
	Name       string `json:"name"`
	SpecFile   string `json:"spec_file"`
	OutlineDir string `json:"outline_dir"`
	PDFDir     string `json:"pdf_dir"`
	OutputFile string `json:"output_file"`
}
