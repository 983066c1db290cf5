package nametags

// Runnable is the interface implemented by scheduled jobs.
// The Run method contains the job's logic and is called when the job executes.
type Runnable interface {
	Run()
}

// RunnableFunc adapts a plain function to Runnable.
type RunnableFunc func()

// Run calls f.
func (f RunnableFunc) Run() {
	f()
}
